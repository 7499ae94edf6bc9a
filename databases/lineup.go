package databases

// go generate: mockery --name LineupDatabase

import (
	"context"

	"github.com/siuno/teamfund-api/models"
)

const lineupsCollection = "lineups"

// LineupDatabase contains the methods to use with the lineup database
type LineupDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Lineup, error)
	InsertOne(ctx context.Context, lineup models.Lineup) (interface{}, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
}

type lineupDatabase struct {
	db DatabaseHelper
}

// NewLineupDatabase initializes a new instance of lineup database with the provided db connection
func NewLineupDatabase(db DatabaseHelper) LineupDatabase {
	return &lineupDatabase{
		db: db,
	}
}

func (l *lineupDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Lineup, error) {
	lineup := &models.Lineup{}
	err := l.db.Collection(lineupsCollection).FindOne(ctx, filter).Decode(lineup)
	if err != nil {
		return nil, err
	}
	return lineup, nil
}

func (l *lineupDatabase) InsertOne(ctx context.Context, lineup models.Lineup) (interface{}, error) {
	return l.db.Collection(lineupsCollection).InsertOne(ctx, lineup)
}

func (l *lineupDatabase) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return l.db.Collection(lineupsCollection).DeleteMany(ctx, filter)
}
