package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chesskeep/chess-review-backend/internal/config"
)

type ReportDbClient struct {
	client           *mongo.Client
	ReportCollection *mongo.Collection
}

func (r *ReportDbClient) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func NewDbClient(ctx context.Context, cfg config.Configuration) (*ReportDbClient, error) {
	clientOpts := options.Client().ApplyURI(cfg.Database.Address)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongo: %w", err)
	}

	if err = client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	collection := client.Database(cfg.Database.DatabaseName).Collection(cfg.Database.Collection)
	if collection == nil {
		return nil, fmt.Errorf("can't resolve collection %s.%s", cfg.Database.DatabaseName, cfg.Database.Collection)
	}
	return &ReportDbClient{client: client, ReportCollection: collection}, nil
}
