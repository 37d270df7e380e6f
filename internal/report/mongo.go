package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fekuna/omnipos-production-service/internal/apperror"
	"github.com/fekuna/omnipos-production-service/internal/model"
)

const summaryCollection = "production_summaries"

// MongoArchive stores one summary document per day.
type MongoArchive struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoArchive(ctx context.Context, uri, dbName string) (*MongoArchive, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return newMongoArchive(client, dbName), nil
}

func newMongoArchive(client *mongo.Client, dbName string) *MongoArchive {
	return &MongoArchive{
		client: client,
		coll:   client.Database(dbName).Collection(summaryCollection),
	}
}

func (a *MongoArchive) SaveSummary(ctx context.Context, summary *model.ProductionSummary) error {
	_, err := a.coll.ReplaceOne(ctx,
		bson.M{"date": summary.Date},
		summary,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save production summary: %w", err)
	}
	return nil
}

func (a *MongoArchive) FindSummary(ctx context.Context, date time.Time) (*model.ProductionSummary, error) {
	var out model.ProductionSummary
	err := a.coll.FindOne(ctx, bson.M{"date": date}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("production summary", date.Format(time.DateOnly))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load production summary: %w", err)
	}
	return &out, nil
}

func (a *MongoArchive) Close(ctx context.Context) error {
	return a.client.Disconnect(ctx)
}
