package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap/zaptest"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/model"
)

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	c := sampleCountry("France", 48.85, 2.35, "French")
	c.ID = primitive.NewObjectID().Hex()

	doc, err := toDocument(c)
	require.NoError(t, err)
	require.Equal(t, "Point", doc.Location.Type)
	require.Equal(t, []float64{2.35, 48.85}, doc.Location.Coordinates)
	require.Equal(t, c, fromDocument(doc))
}

func TestDocumentWithoutLocation(t *testing.T) {
	t.Parallel()

	c := sampleCountry("Nowhere", 0, 0, "English")
	c.Location = nil

	doc, err := toDocument(c)
	require.NoError(t, err)
	require.Nil(t, doc.Location)
	require.Nil(t, fromDocument(doc).Location)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	require.NotContains(t, m, "location")
}

func TestDocumentFieldNames(t *testing.T) {
	t.Parallel()

	doc, err := toDocument(sampleCountry("France", 48.85, 2.35, "French"))
	require.NoError(t, err)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)

	var m bson.M
	require.NoError(t, bson.Unmarshal(raw, &m))
	require.NotContains(t, m, "_id")
	require.Contains(t, m, "language")
	require.Contains(t, m, "timezone")
	require.Contains(t, m, "native_name")

	langs := m["language"].(bson.A)
	require.Equal(t, "French", langs[0].(bson.M)["name"])
	require.Equal(t, "xx", langs[0].(bson.M)["iso639_1"])
}

func TestToDocumentRejectsMalformedID(t *testing.T) {
	t.Parallel()

	c := sampleCountry("France", 48.85, 2.35, "French")
	c.ID = "not-an-object-id"
	_, err := toDocument(c)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func documentD(t *testing.T, c model.Country) bson.D {
	t.Helper()

	doc, err := toDocument(c)
	require.NoError(t, err)
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var d bson.D
	require.NoError(t, bson.Unmarshal(raw, &d))
	return d
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("fetch all decodes documents in order", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		us := sampleCountry("United States", 38.9, -77.0, "English")
		us.ID = primitive.NewObjectID().Hex()
		fr := sampleCountry("France", 48.85, 2.35, "French")
		fr.ID = primitive.NewObjectID().Hex()

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, documentD(t, us), documentD(t, fr)))

		all, err := s.FetchAll(ctx)
		require.NoError(t, err)
		require.Equal(t, []model.Country{us, fr}, all)
	})

	mt.Run("fetch by id not found", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := s.FetchByID(ctx, primitive.NewObjectID().Hex())
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	mt.Run("malformed id is not found without a round trip", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		_, err := s.FetchByID(ctx, "42")
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	mt.Run("replace of a missing document is not found", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		c := sampleCountry("France", 48.85, 2.35, "French")
		c.ID = primitive.NewObjectID().Hex()
		_, err := s.Replace(ctx, c)
		require.ErrorIs(t, err, apperr.ErrNotFound)
	})

	mt.Run("replace of an existing document", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		c := sampleCountry("France", 48.85, 2.35, "French")
		c.ID = primitive.NewObjectID().Hex()
		got, err := s.Replace(ctx, c)
		require.NoError(t, err)
		require.Equal(t, c, got)
	})

	mt.Run("insert assigns an object id", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := s.Insert(ctx, sampleCountry("France", 48.85, 2.35, "French"))
		require.NoError(t, err)
		_, err = primitive.ObjectIDFromHex(got.ID)
		require.NoError(t, err)
	})

	mt.Run("unknown filter field", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		_, err := s.FetchByField(ctx, "area", "1")
		require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	})

	mt.Run("server errors are unavailable", func(mt *mtest.T) {
		s := NewMongoStoreFromCollection(mt.Coll, zaptest.NewLogger(t))

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "shutting down",
		}))

		_, err := s.Count(ctx)
		require.ErrorIs(t, err, apperr.ErrUnavailable)
	})
}
