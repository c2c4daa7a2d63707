package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/juddisjudd/paxdeiclans/api"
	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/databases"
	"github.com/juddisjudd/paxdeiclans/discord"
	"github.com/juddisjudd/paxdeiclans/models"
)

const (
	stateCookieName = "paxdei_oauth_state"
	stateCookieTTL  = 10 * time.Minute
)

var (
	errStateMismatch = errors.New("oauth state does not match cookie")
	errMissingCode   = errors.New("missing oauth code")
)

// Auth handles Discord sign in and session lookups
type Auth struct {
	UDB      databases.UserDatabase
	OAuth    *oauth2.Config
	Users    discord.UserFetcher
	Sessions *api.Sessions
	Secure   bool
	Now      func() time.Time
}

func (a Auth) now() time.Time {
	if a.Now != nil {
		return a.Now().UTC()
	}
	return time.Now().UTC()
}

// LoginHandler redirects to Discord's consent screen with a fresh state cookie
func (a Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth/discord",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   a.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, a.OAuth.AuthCodeURL(state), http.StatusFound)
}

// CallbackHandler completes the code flow, stores the Discord profile and
// returns a session token
func (a Auth) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookieName)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
		config.ErrorStatus(models.ReasonUnauthorized, "Invalid sign in state", http.StatusUnauthorized, w, errStateMismatch)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth/discord", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		config.ErrorStatus(models.ReasonValidationFailed, "Missing authorization code", http.StatusBadRequest, w, errMissingCode)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	token, err := a.OAuth.Exchange(ctx, code)
	if err != nil {
		config.ErrorStatus(models.ReasonUnauthorized, "Discord sign in failed", http.StatusUnauthorized, w, err)
		return
	}
	user, err := a.Users.CurrentUser(ctx, token)
	if err != nil {
		config.ErrorStatus(models.ReasonInternal, "Failed to fetch Discord profile", http.StatusBadGateway, w, err)
		return
	}

	now := a.now()
	if err := a.UDB.Upsert(ctx, user, now); err != nil {
		config.ErrorStatus(models.ReasonInternal, "Failed to save user", http.StatusInternalServerError, w, err)
		return
	}
	user.LastLoginAt = now

	signed, expiresAt, err := a.Sessions.Issue(user)
	if err != nil {
		config.ErrorStatus(models.ReasonInternal, "Failed to create session", http.StatusInternalServerError, w, err)
		return
	}
	zap.S().Infow("user signed in", "userId", user.ID, "username", user.Username)

	config.WriteJSON(w, http.StatusOK, models.SessionResponse{Token: signed, ExpiresAt: expiresAt, User: user})
}

// SessionHandler returns the signed in user
func (a Auth) SessionHandler(w http.ResponseWriter, r *http.Request) {
	current, ok := api.UserFromContext(r.Context())
	if !ok {
		config.ErrorStatus(models.ReasonUnauthorized, "You must be signed in", http.StatusUnauthorized, w, errNoUser)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	var user models.User
	if err := a.UDB.FindOne(ctx, bson.M{"_id": current.ID}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			config.ErrorStatus(models.ReasonUnauthorized, "You must be signed in", http.StatusUnauthorized, w, err)
			return
		}
		config.ErrorStatus(models.ReasonInternal, "Failed to fetch user", http.StatusInternalServerError, w, err)
		return
	}
	config.WriteJSON(w, http.StatusOK, user)
}
