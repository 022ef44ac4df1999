package store

import (
	"comment-service/model"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save upserts snapshot", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "x"}}}},
		))

		total := int64(12)
		err := s.Save(context.Background(), model.Snapshot{
			VideoID:              "vid",
			TotalCommentsOnVideo: &total,
			TotalCommentsFetched: 1,
			Comments:             []model.Comment{{Date: "2023/05/01 10:20:30", Replies: []model.Comment{}}},
			FetchedAt:            time.Now().UTC(),
		})
		require.NoError(mt, err)
	})

	mt.Run("save surfaces write errors", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Message: "duplicate key",
			Name:    "DuplicateKey",
		}))

		err := s.Save(context.Background(), model.Snapshot{VideoID: "vid"})
		assert.Error(mt, err)
	})

	mt.Run("latest decodes stored snapshot", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + "." + snapshotsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "videoId", Value: "vid"},
			{Key: "totalCommentsOnVideo", Value: int64(40)},
			{Key: "totalCommentsFetched", Value: 2},
			{Key: "comments", Value: bson.A{
				bson.D{{Key: "author", Value: "alice"}, {Key: "date", Value: "2023/05/01 10:20:30"}, {Key: "likes", Value: int64(3)}},
			}},
			{Key: "requestId", Value: "req-1"},
		}))

		snapshot, err := s.Latest(context.Background(), "vid")
		require.NoError(mt, err)
		assert.Equal(mt, "vid", snapshot.VideoID)
		require.NotNil(mt, snapshot.TotalCommentsOnVideo)
		assert.Equal(mt, int64(40), *snapshot.TotalCommentsOnVideo)
		assert.Equal(mt, 2, snapshot.TotalCommentsFetched)
		require.Len(mt, snapshot.Comments, 1)
		assert.Equal(mt, "alice", *snapshot.Comments[0].Author)
		assert.Equal(mt, "req-1", snapshot.RequestID)
	})

	mt.Run("latest reports missing snapshot", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB)
		ns := mt.DB.Name() + "." + snapshotsCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.Latest(context.Background(), "missing")
		assert.ErrorIs(mt, err, ErrSnapshotNotFound)
	})
}
