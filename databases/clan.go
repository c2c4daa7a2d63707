package databases

// go generate: mockery --name ClanDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juddisjudd/paxdeiclans/models"
)

const clanName = "clans"

// ClanDatabase contains the methods to use with the clan database
type ClanDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) SingleResultHelper
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorHelper, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
	InsertOne(ctx context.Context, clan models.Clan) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) SingleResultHelper
	EnsureIndexes(ctx context.Context) error
}

type clanDatabase struct {
	db DatabaseHelper
}

// NewClanDatabase initializes a new instance of clan database with the provided db connection
func NewClanDatabase(db DatabaseHelper) ClanDatabase {
	return &clanDatabase{
		db: db,
	}
}

func (c *clanDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) SingleResultHelper {
	return c.db.Collection(clanName).FindOne(ctx, filter, opts...)
}

func (c *clanDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (CursorHelper, error) {
	return c.db.Collection(clanName).Find(ctx, filter, opts...)
}

func (c *clanDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(clanName).CountDocuments(ctx, filter, opts...)
}

func (c *clanDatabase) InsertOne(ctx context.Context, clan models.Clan) (InsertOneResultHelper, error) {
	return c.db.Collection(clanName).InsertOne(ctx, clan)
}

func (c *clanDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := c.db.Collection(clanName).UpdateOne(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *clanDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	res, err := c.db.Collection(clanName).UpdateMany(ctx, filter, update, opts...)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *clanDatabase) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) SingleResultHelper {
	return c.db.Collection(clanName).FindOneAndUpdate(ctx, filter, update, opts...)
}

// EnsureIndexes creates the indexes backing the listing sort and filters
func (c *clanDatabase) EnsureIndexes(ctx context.Context) error {
	return c.db.Collection(clanName).CreateIndexes(ctx, clanIndexes())
}

func clanIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "lastBumpedAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: 1}, {Key: "language", Value: 1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "discordLastUpdate", Value: 1}}},
	}
}
