package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/oauth2"

	"github.com/juddisjudd/paxdeiclans/models"
)

// Endpoint is Discord's OAuth2 endpoint
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// NewOAuthConfig builds the code flow config for the identify scope
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"identify"},
		Endpoint:     Endpoint,
	}
}

// UserFetcher resolves the Discord account behind an OAuth token
type UserFetcher interface {
	CurrentUser(ctx context.Context, token *oauth2.Token) (models.User, error)
}

// CurrentUser fetches @me with the user's bearer token
func (c *Client) CurrentUser(ctx context.Context, token *oauth2.Token) (models.User, error) {
	s, err := discordgo.New("Bearer " + token.AccessToken)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create discord session: %w", err)
	}
	s.Client = c.session.Client

	u, err := s.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return models.User{}, fmt.Errorf("failed to fetch discord user: %w", err)
	}
	return models.User{
		ID:         u.ID,
		Username:   u.Username,
		GlobalName: u.GlobalName,
		Avatar:     u.Avatar,
	}, nil
}
