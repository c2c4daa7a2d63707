package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"

	"github.com/juddisjudd/paxdeiclans/models"
)

var (
	// ErrInvalidInviteURL is returned when the URL is not a discord.gg invite link
	ErrInvalidInviteURL = errors.New("invalid invite URL format")
	// ErrInviteNotFound is returned when Discord does not know the invite code
	ErrInviteNotFound = errors.New("invalid or expired invite")
)

const (
	maxRetries      = 2
	initialInterval = 250 * time.Millisecond
	maxInterval     = 2 * time.Second
)

// InviteInfo is what Discord reports about a valid invite
type InviteInfo struct {
	Code      string
	GuildName string
	Members   int
	Online    int
}

// Stats returns the member and online counts
func (i InviteInfo) Stats() models.DiscordStats {
	return models.DiscordStats{Members: i.Members, Online: i.Online}
}

// InviteVerifier checks an invite link against Discord
type InviteVerifier interface {
	Verify(ctx context.Context, inviteURL string) (InviteInfo, error)
}

// IsInvalidInvite reports whether err means the invite itself is bad,
// as opposed to Discord being unreachable
func IsInvalidInvite(err error) bool {
	return errors.Is(err, ErrInvalidInviteURL) || errors.Is(err, ErrInviteNotFound)
}

// InvalidReason is the message shown to users for an invite verification error
func InvalidReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInviteURL):
		return "Invalid invite URL format"
	case errors.Is(err, ErrInviteNotFound):
		return "Invalid or expired invite"
	default:
		return "Failed to verify invite"
	}
}

// InviteCode extracts the code from a https://discord.gg/<code> link
func InviteCode(inviteURL string) (string, error) {
	m := models.DiscordInvitePattern.FindStringSubmatch(inviteURL)
	if len(m) != 2 {
		return "", ErrInvalidInviteURL
	}
	return m[1], nil
}

// Client talks to the Discord REST API
type Client struct {
	session    *discordgo.Session
	maxRetries uint64
	interval   time.Duration
}

// NewClient creates an unauthenticated Discord client using httpClient for transport
func NewClient(httpClient *http.Client) (*Client, error) {
	s, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	if httpClient != nil {
		s.Client = httpClient
	}
	s.MaxRestRetries = 1
	return &Client{session: s, maxRetries: maxRetries, interval: initialInterval}, nil
}

// Verify looks the invite up with approximate counts. Transient failures are
// retried with exponential backoff; a 404 is final.
func (c *Client) Verify(ctx context.Context, inviteURL string) (InviteInfo, error) {
	code, err := InviteCode(inviteURL)
	if err != nil {
		return InviteInfo{}, err
	}

	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.interval),
		backoff.WithMaxInterval(maxInterval),
	), c.maxRetries)

	var invite *discordgo.Invite
	err = backoff.Retry(func() error {
		var err error
		invite, err = c.session.InviteWithCounts(code, discordgo.WithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return InviteInfo{}, fmt.Errorf("invite %s: %w", code, ErrInviteNotFound)
		}
		return InviteInfo{}, fmt.Errorf("failed to verify invite %s: %w", code, err)
	}

	info := InviteInfo{
		Code:    code,
		Members: invite.ApproximateMemberCount,
		Online:  invite.ApproximatePresenceCount,
	}
	if invite.Guild != nil {
		info.GuildName = invite.Guild.Name
	}
	return info, nil
}

// retryable is true for network errors and 5xx responses
func retryable(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		return restErr.Response == nil || restErr.Response.StatusCode >= http.StatusInternalServerError
	}
	return true
}
