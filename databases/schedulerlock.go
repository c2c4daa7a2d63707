package databases

// go generate: mockery --name SchedulerLockDatabase

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const schedulerLockName = "schedulerLocks"

// SchedulerLockDatabase guards cron jobs so a single instance runs each one
type SchedulerLockDatabase interface {
	TryAcquireLock(ctx context.Context, job, owner string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, job, owner string) error
}

type schedulerLockDatabase struct {
	db  DatabaseHelper
	now func() time.Time
}

// NewSchedulerLockDatabase initializes a new instance of scheduler lock database with the provided db connection
func NewSchedulerLockDatabase(db DatabaseHelper) SchedulerLockDatabase {
	return &schedulerLockDatabase{
		db:  db,
		now: time.Now,
	}
}

// TryAcquireLock takes the lock when it is free, expired, or already held by owner.
// Losing the upsert race to another instance surfaces as a duplicate key error
// and is reported as not acquired.
func (s *schedulerLockDatabase) TryAcquireLock(ctx context.Context, job, owner string, ttl time.Duration) (bool, error) {
	now := s.now().UTC()
	filter := bson.M{
		"_id": job,
		"$or": []bson.M{
			{"expiresAt": bson.M{"$lte": now}},
			{"owner": owner},
		},
	}
	update := bson.M{"$set": bson.M{
		"owner":      owner,
		"acquiredAt": now,
		"expiresAt":  now.Add(ttl),
	}}

	_, err := s.db.Collection(schedulerLockName).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReleaseLock drops the lock if owner still holds it
func (s *schedulerLockDatabase) ReleaseLock(ctx context.Context, job, owner string) error {
	_, err := s.db.Collection(schedulerLockName).DeleteOne(ctx, bson.M{"_id": job, "owner": owner})
	return err
}
