package databases

// go generate: mockery --name VoteDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siuno/teamfund-api/models"
)

const votesCollection = "votes"

// VoteDatabase contains the methods to use with the vote database
type VoteDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Vote, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vote, error)
	// UpdateOne with upsert options carries the one-vote-per-(user, match)
	// upsert; the unique compound index backs it up.
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type voteDatabase struct {
	db DatabaseHelper
}

// NewVoteDatabase initializes a new instance of vote database with the provided db connection
func NewVoteDatabase(db DatabaseHelper) VoteDatabase {
	return &voteDatabase{
		db: db,
	}
}

func (v *voteDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Vote, error) {
	vote := &models.Vote{}
	err := v.db.Collection(votesCollection).FindOne(ctx, filter).Decode(vote)
	if err != nil {
		return nil, err
	}
	return vote, nil
}

func (v *voteDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Vote, error) {
	cursor, err := v.db.Collection(votesCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var votes []models.Vote
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

func (v *voteDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return v.db.Collection(votesCollection).UpdateOne(ctx, filter, update, opts...)
}

func (v *voteDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return v.db.Collection(votesCollection).DeleteMany(ctx, filter)
}
