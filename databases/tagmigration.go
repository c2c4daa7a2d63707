package databases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juddisjudd/paxdeiclans/models"
)

// TagMigration is the outcome of renaming a tag across all clans
type TagMigration struct {
	From     models.Tag
	To       models.Tag
	Affected []models.Clan
	Modified int64
	Applied  bool
}

// MigrateTag finds every clan tagged from and, when apply is set, replaces
// from with to. The source tag may be one that is no longer offered.
func MigrateTag(ctx context.Context, cdb ClanDatabase, from, to string, apply bool) (TagMigration, error) {
	src := models.Tag(strings.ToLower(strings.TrimSpace(from)))
	dst := models.Tag(strings.ToLower(strings.TrimSpace(to)))
	m := TagMigration{From: src, To: dst}
	if src == "" {
		return m, errors.New("source tag is required")
	}
	if !dst.Valid() {
		return m, fmt.Errorf("unknown target tag %q", to)
	}
	if src == dst {
		return m, fmt.Errorf("source and target tag are both %q", src)
	}

	filter := bson.M{"tags": src}
	cur, err := cdb.Find(ctx, filter, options.Find().
		SetProjection(bson.M{"_id": 1, "name": 1, "tags": 1}).
		SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return m, fmt.Errorf("failed to find clans tagged %s: %w", src, err)
	}
	if err := cur.Decode(&m.Affected); err != nil {
		return m, fmt.Errorf("failed to decode clans tagged %s: %w", src, err)
	}
	if !apply || len(m.Affected) == 0 {
		return m, nil
	}

	// $addToSet and $pull cannot touch the same field in one update
	if _, err := cdb.UpdateMany(ctx, filter, bson.M{"$addToSet": bson.M{"tags": dst}}); err != nil {
		return m, fmt.Errorf("failed to add tag %s: %w", dst, err)
	}
	res, err := cdb.UpdateMany(ctx, filter, bson.M{"$pull": bson.M{"tags": src}})
	if err != nil {
		return m, fmt.Errorf("failed to remove tag %s: %w", src, err)
	}
	m.Modified = res.ModifiedCount
	m.Applied = true
	return m, nil
}
