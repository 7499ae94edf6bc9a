package databases

// go generate: mockery --name MatchDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siuno/teamfund-api/models"
)

const matchesCollection = "matches"

// MatchDatabase contains the methods to use with the match database
type MatchDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Match, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Match, error)
	InsertOne(ctx context.Context, match models.Match) (interface{}, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type matchDatabase struct {
	db DatabaseHelper
}

// NewMatchDatabase initializes a new instance of match database with the provided db connection
func NewMatchDatabase(db DatabaseHelper) MatchDatabase {
	return &matchDatabase{
		db: db,
	}
}

func (m *matchDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Match, error) {
	match := &models.Match{}
	err := m.db.Collection(matchesCollection).FindOne(ctx, filter).Decode(match)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (m *matchDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Match, error) {
	cursor, err := m.db.Collection(matchesCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var matches []models.Match
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (m *matchDatabase) InsertOne(ctx context.Context, match models.Match) (interface{}, error) {
	return m.db.Collection(matchesCollection).InsertOne(ctx, match)
}

func (m *matchDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return m.db.Collection(matchesCollection).UpdateOne(ctx, filter, update, opts...)
}

func (m *matchDatabase) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return m.db.Collection(matchesCollection).DeleteOne(ctx, filter)
}

func (m *matchDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return m.db.Collection(matchesCollection).CountDocuments(ctx, filter)
}
