package databases

// go generate: mockery --name PaymentRequestDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/siuno/teamfund-api/models"
)

const paymentRequestsCollection = "payment_requests"

// PaymentRequestDatabase contains the methods to use with the payment request database
type PaymentRequestDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.PaymentRequest, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PaymentRequest, error)
	InsertOne(ctx context.Context, request models.PaymentRequest) (interface{}, error)
	// FindOneAndUpdate returns the post-update document, or
	// mongo.ErrNoDocuments when nothing matched the filter.
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.PaymentRequest, error)
	CountDocuments(ctx context.Context, filter interface{}) (int64, error)
}

type paymentRequestDatabase struct {
	db DatabaseHelper
}

// NewPaymentRequestDatabase initializes a new instance of payment request database with the provided db connection
func NewPaymentRequestDatabase(db DatabaseHelper) PaymentRequestDatabase {
	return &paymentRequestDatabase{
		db: db,
	}
}

func (p *paymentRequestDatabase) FindOne(ctx context.Context, filter interface{}) (*models.PaymentRequest, error) {
	request := &models.PaymentRequest{}
	err := p.db.Collection(paymentRequestsCollection).FindOne(ctx, filter).Decode(request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (p *paymentRequestDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PaymentRequest, error) {
	cursor, err := p.db.Collection(paymentRequestsCollection).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var requests []models.PaymentRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (p *paymentRequestDatabase) InsertOne(ctx context.Context, request models.PaymentRequest) (interface{}, error) {
	return p.db.Collection(paymentRequestsCollection).InsertOne(ctx, request)
}

func (p *paymentRequestDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}) (*models.PaymentRequest, error) {
	request := &models.PaymentRequest{}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := p.db.Collection(paymentRequestsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(request)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (p *paymentRequestDatabase) CountDocuments(ctx context.Context, filter interface{}) (int64, error) {
	return p.db.Collection(paymentRequestsCollection).CountDocuments(ctx, filter)
}
