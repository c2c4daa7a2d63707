package databases

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juddisjudd/paxdeiclans/models"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := (mp.page - 1) * mp.limit
	if mp.page > 1 && skip/(mp.page-1) != mp.limit {
		skip = math.MaxInt64
	}
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// ClanSort orders listings by freshness, newest first. _id breaks ties so
// consecutive pages never overlap.
var ClanSort = bson.D{{Key: "lastBumpedAt", Value: -1}, {Key: "_id", Value: -1}}

// BuildClanQuery ANDs the active predicates of the filter. A filter with no
// active predicate matches every clan.
func BuildClanQuery(f models.ClanFilter) bson.M {
	var and []bson.M
	if len(f.Tags) > 0 {
		and = append(and, bson.M{"tags": bson.M{"$in": f.Tags}})
	}
	if f.Location != "" {
		and = append(and, bson.M{"location": f.Location})
	}
	if f.Language != "" {
		and = append(and, bson.M{"language": f.Language})
	}
	if len(and) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": and}
}

// ClanPageOptions returns the sorted, paginated find options for the filter
func ClanPageOptions(f models.ClanFilter) *options.FindOptions {
	return newMongoPaginate(f.PageSize, f.Page).getPaginatedOpts().SetSort(ClanSort)
}

// BumpFilter matches the clan only when its cooldown has elapsed at now
func BumpFilter(id primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"_id":          id,
		"lastBumpedAt": bson.M{"$lte": models.BumpEligibleBefore(now)},
	}
}

// BumpUpdate moves the freshness timestamp to now
func BumpUpdate(now time.Time) bson.M {
	return bson.M{"$set": bson.M{"lastBumpedAt": now}}
}

// SyncTargetOptions projects clans down to what the stats sync reads
func SyncTargetOptions() *options.FindOptions {
	return options.Find().SetProjection(bson.M{"_id": 1, "discordUrl": 1, "discordLastUpdate": 1})
}

// DiscordStatsUpdate records a successful stats refresh
func DiscordStatsUpdate(stats models.DiscordStats, syncedAt time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"discordMembers":    stats.Members,
		"discordOnline":     stats.Online,
		"discordLastUpdate": syncedAt,
	}}
}
