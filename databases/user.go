package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juddisjudd/paxdeiclans/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindOne(ctx context.Context, filter interface{}) SingleResultHelper
	Upsert(ctx context.Context, user models.User, now time.Time) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindOne(ctx context.Context, filter interface{}) SingleResultHelper {
	return u.db.Collection(userName).FindOne(ctx, filter)
}

// Upsert refreshes the Discord profile of a user on sign in, creating the
// document on first login
func (u *userDatabase) Upsert(ctx context.Context, user models.User, now time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"username":    user.Username,
			"globalName":  user.GlobalName,
			"avatar":      user.Avatar,
			"lastLoginAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := u.db.Collection(userName).UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	return err
}
