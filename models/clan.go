package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clan holds the structure for the clans collection in mongo
type Clan struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OwnerID           string             `json:"ownerId" bson:"ownerId"`
	Name              string             `json:"name" bson:"name"`
	Description       string             `json:"description" bson:"description"`
	ImageURL          *string            `json:"imageUrl" bson:"imageUrl"`
	Tags              []Tag              `json:"tags" bson:"tags"`
	Location          Location           `json:"location" bson:"location"`
	Language          string             `json:"language" bson:"language"`
	DiscordURL        string             `json:"discordUrl" bson:"discordUrl"`
	DiscordMembers    *int               `json:"discordMembers" bson:"discordMembers"`
	DiscordOnline     *int               `json:"discordOnline" bson:"discordOnline"`
	DiscordLastUpdate *time.Time         `json:"discordLastUpdate" bson:"discordLastUpdate"`
	LastBumpedAt      time.Time          `json:"lastBumpedAt" bson:"lastBumpedAt"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// DiscordStats are the cached counts reported by the invite verifier
type DiscordStats struct {
	Members int
	Online  int
}

// SetDiscordStats records a successful sync. Members and online are always set together.
func (c *Clan) SetDiscordStats(stats DiscordStats, syncedAt time.Time) {
	members, online := stats.Members, stats.Online
	c.DiscordMembers = &members
	c.DiscordOnline = &online
	c.DiscordLastUpdate = &syncedAt
}

// ClanPage is the response of the listing endpoint
type ClanPage struct {
	Clans      []Clan `json:"clans"`
	TotalCount int64  `json:"totalCount"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int64  `json:"totalPages"`
}

// NewClanPage fills in the derived pagination fields
func NewClanPage(clans []Clan, total int64, filter ClanFilter) ClanPage {
	if clans == nil {
		clans = []Clan{}
	}
	return ClanPage{
		Clans:      clans,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: PageCount(total, filter.PageSize),
	}
}

// PageCount is ceil(total / pageSize)
func PageCount(total int64, pageSize int) int64 {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	size := int64(pageSize)
	return (total + size - 1) / size
}
