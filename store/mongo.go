package store

import (
	"comment-service/metrics"
	"comment-service/model"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snapshotsCollection = "comment_snapshots"

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore keeps the latest successful fetch for each video.
type SnapshotStore interface {
	Save(ctx context.Context, snapshot model.Snapshot) error
	Latest(ctx context.Context, videoID string) (*model.Snapshot, error)
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(snapshotsCollection)}
}

// Connect opens a client and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "videoId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "fetchedAt", Value: -1}},
		},
	}

	for _, index := range indexes {
		if _, err := s.collection.Indexes().CreateOne(ctx, index); err != nil {
			log.Warn().Err(err).Msg("Failed to create index")
		}
	}
}

// Save replaces the stored snapshot for the video, inserting it if absent.
func (s *MongoStore) Save(ctx context.Context, snapshot model.Snapshot) (err error) {
	defer observe("upsert", time.Now(), &err)

	filter := bson.M{"videoId": snapshot.VideoID}
	opts := options.Replace().SetUpsert(true)

	result, err := s.collection.ReplaceOne(ctx, filter, snapshot, opts)
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", snapshot.VideoID, err)
	}

	log.Debug().
		Str("video_id", snapshot.VideoID).
		Int64("upserted", result.UpsertedCount).
		Int64("modified", result.ModifiedCount).
		Msg("Snapshot stored")
	return nil
}

func (s *MongoStore) Latest(ctx context.Context, videoID string) (_ *model.Snapshot, err error) {
	defer observe("find", time.Now(), &err)

	var snapshot model.Snapshot
	err = s.collection.FindOne(ctx, bson.M{"videoId": videoID}).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", videoID, err)
	}
	return &snapshot, nil
}

func observe(operation string, start time.Time, err *error) {
	status := metrics.StatusLabel(*err)
	if errors.Is(*err, ErrSnapshotNotFound) {
		status = "not_found"
	}
	metrics.MongoOperationsTotal.WithLabelValues(operation, snapshotsCollection, status).Inc()
	metrics.MongoOperationDuration.WithLabelValues(operation, snapshotsCollection).
		Observe(time.Since(start).Seconds())
}
