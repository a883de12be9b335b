package dao

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chesskeep/chess-review-backend/internal/db"
	"github.com/chesskeep/chess-review-backend/pkg/review"
)

const opTimeout = 2 * time.Second

// StoredReport is a finished game analysis together with the metadata
// the listing endpoints filter on.
type StoredReport struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	White     string             `json:"white_player" bson:"white_player"`
	Black     string             `json:"black_player" bson:"black_player"`
	CreatedAt primitive.DateTime `json:"created_at" bson:"created_at"`
	Report    *review.Report     `json:"report" bson:"report"`
}

type ReportRepository interface {
	InsertReport(report StoredReport) (primitive.ObjectID, error)

	GetReport(id primitive.ObjectID) (StoredReport, error)

	GetPlayerReports(player string, limit int64) ([]StoredReport, error)
}

type reportRepository struct {
	dbClient *db.ReportDbClient
}

func NewReportRepository(dbClient *db.ReportDbClient) ReportRepository {
	return &reportRepository{dbClient}
}

func (r *reportRepository) InsertReport(report StoredReport) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), opTimeout)
	defer cancel()

	res, err := r.dbClient.ReportCollection.InsertOne(ctx, report)
	if err != nil {
		return primitive.NilObjectID, err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("inserted id has unexpected type %T", res.InsertedID)
	}
	return id, nil
}

func (r *reportRepository) GetReport(id primitive.ObjectID) (StoredReport, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), opTimeout)
	defer cancel()

	filter := bson.D{{"_id", id}}
	cur := r.dbClient.ReportCollection.FindOne(ctx, filter)
	var report StoredReport
	if err := cur.Decode(&report); err != nil {
		return StoredReport{}, err
	}
	return report, nil
}

func (r *reportRepository) GetPlayerReports(player string, limit int64) ([]StoredReport, error) {
	ctx, cancel := context.WithTimeout(context.TODO(), opTimeout)
	defer cancel()

	opts := options.Find()
	opts.SetSort(bson.D{{"created_at", -1}})
	opts.SetLimit(limit)

	filter := bson.D{
		{"$or", bson.A{
			bson.D{{"white_player", player}},
			bson.D{{"black_player", player}},
		}},
	}

	cur, err := r.dbClient.ReportCollection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var reports []StoredReport
	if err = cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}
