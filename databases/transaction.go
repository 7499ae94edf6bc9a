package databases

// go generate: mockery --name TransactionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siuno/teamfund-api/models"
)

const transactionsCollection = "transactions"

// TransactionDatabase contains the methods to use with the transaction database
type TransactionDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Transaction, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Transaction, error)
	InsertOne(ctx context.Context, transaction models.Transaction) (interface{}, error)
	// FindOneAndUpdate returns the post-update document, or
	// mongo.ErrNoDocuments when nothing matched the filter.
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Transaction, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
	Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error)
}

type transactionDatabase struct {
	db DatabaseHelper
}

// NewTransactionDatabase initializes a new instance of transaction database with the provided db connection
func NewTransactionDatabase(db DatabaseHelper) TransactionDatabase {
	return &transactionDatabase{
		db: db,
	}
}

func (t *transactionDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Transaction, error) {
	transaction := &models.Transaction{}
	err := t.db.Collection(transactionsCollection).FindOne(ctx, filter).Decode(transaction)
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (t *transactionDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Transaction, error) {
	cursor, err := t.db.Collection(transactionsCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var transactions []models.Transaction
	if err := cursor.All(ctx, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (t *transactionDatabase) InsertOne(ctx context.Context, transaction models.Transaction) (interface{}, error) {
	return t.db.Collection(transactionsCollection).InsertOne(ctx, transaction)
}

func (t *transactionDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.Transaction, error) {
	transaction := &models.Transaction{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := t.db.Collection(transactionsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(transaction)
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (t *transactionDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return t.db.Collection(transactionsCollection).CountDocuments(ctx, filter)
}

func (t *transactionDatabase) Aggregate(ctx context.Context, pipeline interface{}) ([]bson.M, error) {
	cursor, err := t.db.Collection(transactionsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var results []bson.M
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}
