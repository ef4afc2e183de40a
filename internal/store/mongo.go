package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/model"
)

type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	Logger     *zap.Logger
}

// MongoStore persists countries in the rest_countries layout: singular
// "language" and "timezone" arrays and a GeoJSON location.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

type countryDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Capital    string             `bson:"capital"`
	Region     string             `bson:"region"`
	Subregion  string             `bson:"subregion"`
	Population int                `bson:"population"`
	Area       float64            `bson:"area"`
	NativeName string             `bson:"native_name"`
	Currency   string             `bson:"currency"`
	Languages  []model.Language   `bson:"language"`
	Timezones  []string           `bson:"timezone"`
	Location   *pointDocument     `bson:"location,omitempty"`
}

// pointDocument is a GeoJSON point; coordinates are [lng, lat].
type pointDocument struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func toDocument(c model.Country) (countryDocument, error) {
	doc := countryDocument{
		Name:       c.Name,
		Capital:    c.Capital,
		Region:     c.Region,
		Subregion:  c.Subregion,
		Population: c.Population,
		Area:       c.Area,
		NativeName: c.NativeName,
		Currency:   c.Currency,
		Languages:  c.Languages,
		Timezones:  c.Timezones,
	}
	if c.Location != nil {
		doc.Location = &pointDocument{
			Type:        "Point",
			Coordinates: []float64{c.Location.Longitude, c.Location.Latitude},
		}
	}
	if c.ID != "" {
		oid, err := primitive.ObjectIDFromHex(c.ID)
		if err != nil {
			return countryDocument{}, apperr.NotFound("country %s", c.ID)
		}
		doc.ID = oid
	}
	return doc, nil
}

func fromDocument(doc countryDocument) model.Country {
	c := model.Country{
		ID:         doc.ID.Hex(),
		Name:       doc.Name,
		Capital:    doc.Capital,
		Region:     doc.Region,
		Subregion:  doc.Subregion,
		Population: doc.Population,
		Area:       doc.Area,
		NativeName: doc.NativeName,
		Currency:   doc.Currency,
		Languages:  doc.Languages,
		Timezones:  doc.Timezones,
	}
	if doc.Location != nil && len(doc.Location.Coordinates) >= 2 {
		c.Location = &model.Location{
			Longitude: doc.Location.Coordinates[0],
			Latitude:  doc.Location.Coordinates[1],
		}
	}
	return c
}

func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, apperr.Unavailable("connect to mongo", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperr.Unavailable("ping mongo", err)
	}

	s := NewMongoStoreFromCollection(client.Database(opts.Database).Collection(opts.Collection), opts.Logger)
	s.client = client
	s.ensureIndexes(ctx)
	return s, nil
}

func NewMongoStoreFromCollection(collection *mongo.Collection, logger *zap.Logger) *MongoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{
		client:     collection.Database().Client(),
		collection: collection,
		logger:     logger.With(zap.String("store", "mongo"), zap.String("collection", collection.Name())),
	}
}

// ensureIndexes is best effort; queries work without the indexes.
func (s *MongoStore) ensureIndexes(ctx context.Context) {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "language.name", Value: 1}}},
	})
	if err != nil {
		s.logger.Warn("failed to create indexes", zap.Error(err))
	}
}

var insertionOrder = bson.D{{Key: "_id", Value: 1}}

func (s *MongoStore) find(ctx context.Context, op string, filter interface{}, opts *options.FindOptions) ([]model.Country, error) {
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Unavailable(op, err)
	}

	var docs []countryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, apperr.Unavailable(op, err)
	}

	countries := make([]model.Country, 0, len(docs))
	for _, doc := range docs {
		countries = append(countries, fromDocument(doc))
	}
	return countries, nil
}

func (s *MongoStore) FetchAll(ctx context.Context) ([]model.Country, error) {
	return s.find(ctx, "fetch all", bson.D{}, options.Find().SetSort(insertionOrder))
}

func (s *MongoStore) FetchPage(ctx context.Context, after string, limit int) ([]model.Country, error) {
	filter := bson.D{}
	if after != "" {
		oid, err := primitive.ObjectIDFromHex(after)
		if err != nil {
			return nil, apperr.InvalidArgument("unknown cursor %q", after)
		}
		filter = bson.D{{Key: "_id", Value: bson.D{{Key: "$gt", Value: oid}}}}
	}

	opts := options.Find().SetSort(insertionOrder)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return s.find(ctx, "fetch page", filter, opts)
}

func (s *MongoStore) FetchByID(ctx context.Context, id string) (model.Country, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Country{}, apperr.NotFound("country %s", id)
	}

	var doc countryDocument
	err = s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Country{}, apperr.NotFound("country %s", id)
	}
	if err != nil {
		return model.Country{}, apperr.Unavailable("fetch by id", err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) FetchByField(ctx context.Context, field, value string) ([]model.Country, error) {
	path, err := model.FilterPath(field)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, "fetch by field", bson.D{{Key: path, Value: value}}, options.Find().SetSort(insertionOrder))
}

func (s *MongoStore) Insert(ctx context.Context, country model.Country) (model.Country, error) {
	country.ID = ""
	doc, err := toDocument(country)
	if err != nil {
		return model.Country{}, err
	}
	doc.ID = primitive.NewObjectID()

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return model.Country{}, apperr.Unavailable("insert", err)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) InsertMany(ctx context.Context, countries []model.Country) (int, error) {
	if len(countries) == 0 {
		return 0, nil
	}

	docs := make([]interface{}, 0, len(countries))
	for _, c := range countries {
		c.ID = ""
		doc, err := toDocument(c)
		if err != nil {
			return 0, err
		}
		doc.ID = primitive.NewObjectID()
		docs = append(docs, doc)
	}

	res, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		inserted := 0
		if res != nil {
			inserted = len(res.InsertedIDs)
		}
		return inserted, apperr.Unavailable("insert many", err)
	}

	s.logger.Debug("inserted countries", zap.Int("count", len(res.InsertedIDs)))
	return len(res.InsertedIDs), nil
}

func (s *MongoStore) Replace(ctx context.Context, country model.Country) (model.Country, error) {
	doc, err := toDocument(country)
	if err != nil {
		return model.Country{}, err
	}
	if doc.ID.IsZero() {
		return model.Country{}, apperr.NotFound("country without id")
	}

	res, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc)
	if err != nil {
		return model.Country{}, apperr.Unavailable("replace", err)
	}
	if res.MatchedCount == 0 {
		return model.Country{}, apperr.NotFound("country %s", country.ID)
	}
	return fromDocument(doc), nil
}

func (s *MongoStore) Count(ctx context.Context) (int64, error) {
	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, apperr.Unavailable("count", err)
	}
	return n, nil
}

func (s *MongoStore) Clear(ctx context.Context) error {
	if _, err := s.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return apperr.Unavailable("clear", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
