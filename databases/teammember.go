package databases

// go generate: mockery --name TeamMemberDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siuno/teamfund-api/models"
)

const teamMembersCollection = "team_members"

// TeamMemberDatabase contains the methods to use with the team member database
type TeamMemberDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.TeamMember, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.TeamMember, error)
	InsertOne(ctx context.Context, member models.TeamMember) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error)
}

type teamMemberDatabase struct {
	db DatabaseHelper
}

// NewTeamMemberDatabase initializes a new instance of team member database with the provided db connection
func NewTeamMemberDatabase(db DatabaseHelper) TeamMemberDatabase {
	return &teamMemberDatabase{
		db: db,
	}
}

func (m *teamMemberDatabase) FindOne(ctx context.Context, filter interface{}) (*models.TeamMember, error) {
	member := &models.TeamMember{}
	err := m.db.Collection(teamMembersCollection).FindOne(ctx, filter).Decode(member)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (m *teamMemberDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.TeamMember, error) {
	cursor, err := m.db.Collection(teamMembersCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var members []models.TeamMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (m *teamMemberDatabase) InsertOne(ctx context.Context, member models.TeamMember) (interface{}, error) {
	return m.db.Collection(teamMembersCollection).InsertOne(ctx, member)
}

func (m *teamMemberDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.db.Collection(teamMembersCollection).UpdateOne(ctx, filter, update, opts...)
}

func (m *teamMemberDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return m.db.Collection(teamMembersCollection).CountDocuments(ctx, filter)
}

func (m *teamMemberDatabase) Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error) {
	cursor, err := m.db.Collection(teamMembersCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
