package handlers

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/databases"
	"github.com/juddisjudd/paxdeiclans/models"
)

const bumpAttempts = 2

var errBumpRace = errors.New("bump cooldown elapsed between update and re-read")

// BumpClanHandler moves a clan to the top of the listing at most once every 24 hours.
// The cooldown is enforced by the update filter so concurrent bumps cannot both succeed.
func (c Clan) BumpClanHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := clanID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	for attempt := 0; attempt < bumpAttempts; attempt++ {
		now := c.now()
		var clan models.Clan
		err := c.DB.FindOneAndUpdate(ctx, databases.BumpFilter(id, now), databases.BumpUpdate(now),
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&clan)
		if err == nil {
			api.GetMetrics().RecordBump("success")
			zap.S().Debugw("clan bumped", "clanId", id.Hex())
			config.WriteJSON(w, http.StatusOK, models.BumpResponse{
				Success:           true,
				LastBumpedAt:      clan.LastBumpedAt,
				NextBumpAvailable: clan.LastBumpedAt.Add(models.BumpCooldownPeriod),
			})
			return
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus(models.ReasonInternal, "Failed to bump clan", http.StatusInternalServerError, w, err)
			return
		}

		err = c.DB.FindOne(ctx, bson.M{"_id": id},
			options.FindOne().SetProjection(bson.M{"lastBumpedAt": 1})).Decode(&clan)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				api.GetMetrics().RecordBump("not_found")
			}
			writeFindError(w, err)
			return
		}

		cd := models.BumpCooldown(clan.LastBumpedAt, c.now())
		if cd.Active() {
			api.GetMetrics().RecordBump("cooldown")
			zap.S().Debugw("bump rejected",
				"clanId", id.Hex(),
				"hoursRemaining", cd.HoursRemaining)
			config.WriteJSON(w, http.StatusTooManyRequests, models.BumpCooldownResponse{
				Error: models.MessageError{
					Reason:  models.ReasonBumpCooldown,
					Message: "Clan can only be bumped once every 24 hours",
				},
				HoursRemaining:    cd.HoursRemaining,
				NextBumpAvailable: cd.NextBumpAvailable,
			})
			return
		}
	}

	config.ErrorStatus(models.ReasonInternal, "Failed to bump clan", http.StatusInternalServerError, w, errBumpRace)
}
