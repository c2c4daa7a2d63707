package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sourcegraph/conc/pool"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/juddisjudd/paxdeiclans/api"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/databases"
	"github.com/juddisjudd/paxdeiclans/discord"
	"github.com/juddisjudd/paxdeiclans/models"
)

// maxBodyBytes bounds clan create and update payloads
const maxBodyBytes = 64 << 10

// Clan exists for dependency injection
type Clan struct {
	DB       databases.ClanDatabase
	Verifier discord.InviteVerifier
	Now      func() time.Time
}

func (c Clan) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

// ListClansHandler returns one page of clans matching the query filters,
// most recently bumped first
func (c Clan) ListClansHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseClanFilter(r.URL.Query())
	if err != nil {
		config.ErrorStatus(models.ReasonValidationFailed, "Invalid filter", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	query := databases.BuildClanQuery(filter)
	var (
		clans []models.Clan
		total int64
	)
	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		cur, err := c.DB.Find(ctx, query, databases.ClanPageOptions(filter))
		if err != nil {
			return fmt.Errorf("failed to find clans: %w", err)
		}
		return cur.Decode(&clans)
	})
	p.Go(func(ctx context.Context) error {
		n, err := c.DB.CountDocuments(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to count clans: %w", err)
		}
		total = n
		return nil
	})
	if err := p.Wait(); err != nil {
		config.ErrorStatus(models.ReasonInternal, "Failed to fetch clans", http.StatusInternalServerError, w, err)
		return
	}

	config.WriteJSON(w, http.StatusOK, models.NewClanPage(clans, total, filter))
}

// ClanByIDHandler returns a single clan
func (c Clan) ClanByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := clanID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	clan, err := c.findClan(ctx, id)
	if err != nil {
		writeFindError(w, err)
		return
	}
	config.WriteJSON(w, http.StatusOK, clan)
}

// CreateClanHandler lists a new clan owned by the caller once its invite checks out
func (c Clan) CreateClanHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus(models.ReasonUnauthorized, "You must be signed in", http.StatusUnauthorized, w, errNoUser)
		return
	}

	var req models.CreateClanRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		config.ErrorStatus(models.ReasonValidationFailed, "Invalid request body", http.StatusBadRequest, w, err)
		return
	}
	if err := req.Validate(); err != nil {
		config.ErrorStatus(models.ReasonValidationFailed, "Invalid clan data", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	info, err := c.Verifier.Verify(ctx, req.DiscordURL)
	if err != nil {
		writeInviteError(w, err)
		return
	}

	now := c.now()
	clan := req.ToClan(user.ID, now)
	clan.ID = primitive.NewObjectID()
	clan.SetDiscordStats(info.Stats(), now)

	if _, err := c.DB.InsertOne(ctx, clan); err != nil {
		config.ErrorStatus(models.ReasonInternal, "Failed to create clan", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("clan created",
		"clanId", clan.ID.Hex(),
		"owner", user.ID,
		"guild", info.GuildName)

	config.WriteJSON(w, http.StatusCreated, clan)
}

// UpdateClanHandler applies a partial update. Only the owner may edit a clan,
// except that any signed in user may clear a broken image.
func (c Clan) UpdateClanHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus(models.ReasonUnauthorized, "You must be signed in", http.StatusUnauthorized, w, errNoUser)
		return
	}
	id, ok := clanID(w, r)
	if !ok {
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	existing, err := c.findClan(ctx, id)
	if err != nil {
		writeFindError(w, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		config.ErrorStatus(models.ReasonValidationFailed, "Invalid request body", http.StatusBadRequest, w, err)
		return
	}
	req, err := models.DecodeUpdateClanRequest(body)
	if err != nil {
		if errors.Is(err, models.ErrMalformedBody) {
			config.ErrorStatus(models.ReasonValidationFailed, "Invalid request body", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus(models.ReasonValidationFailed, "Invalid clan data", http.StatusBadRequest, w, err)
		return
	}

	if !req.ImageOnly() && existing.OwnerID != user.ID {
		config.ErrorStatus(models.ReasonForbidden, "You can only edit your own clan", http.StatusForbidden, w,
			fmt.Errorf("user %s does not own clan %s", user.ID, id.Hex()))
		return
	}
	if err := req.Validate(); err != nil {
		config.ErrorStatus(models.ReasonValidationFailed, "Invalid clan data", http.StatusBadRequest, w, err)
		return
	}

	now := c.now()
	set := req.SetDocument(now)
	if req.DiscordURL != nil && *req.DiscordURL != existing.DiscordURL {
		info, err := c.Verifier.Verify(ctx, *req.DiscordURL)
		if err != nil {
			writeInviteError(w, err)
			return
		}
		stats := info.Stats()
		set["discordMembers"] = stats.Members
		set["discordOnline"] = stats.Online
		set["discordLastUpdate"] = now
	}

	var updated models.Clan
	err = c.DB.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated)
	if err != nil {
		writeFindError(w, err)
		return
	}
	zap.S().Debugw("clan updated",
		"clanId", id.Hex(),
		"user", user.ID,
		"fields", req.String())

	config.WriteJSON(w, http.StatusOK, updated)
}

func (c Clan) findClan(ctx context.Context, id primitive.ObjectID) (models.Clan, error) {
	var clan models.Clan
	err := c.DB.FindOne(ctx, bson.M{"_id": id}).Decode(&clan)
	return clan, err
}

var errNoUser = errors.New("no authenticated user in context")

// clanID parses the clan_id route variable, writing a 400 when it is not an ObjectID
func clanID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw := mux.Vars(r)["clan_id"]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		config.ErrorStatus(models.ReasonInvalidID, "Invalid clan id", http.StatusBadRequest, w, fmt.Errorf("failed to parse clan id %q: %w", raw, err))
		return primitive.NilObjectID, false
	}
	return id, true
}

func writeFindError(w http.ResponseWriter, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		config.ErrorStatus(models.ReasonNotFound, "Clan not found", http.StatusNotFound, w, err)
		return
	}
	config.ErrorStatus(models.ReasonInternal, "Failed to fetch clan", http.StatusInternalServerError, w, err)
}

func writeInviteError(w http.ResponseWriter, err error) {
	if discord.IsInvalidInvite(err) {
		config.ErrorStatus(models.ReasonInvalidInvite, discord.InvalidReason(err), http.StatusBadRequest, w, err)
		return
	}
	config.ErrorStatus(models.ReasonInviteVerificationFailed, discord.InvalidReason(err), http.StatusBadGateway, w, err)
}
