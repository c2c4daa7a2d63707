package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncStatus is the outcome of refreshing one clan's Discord stats
type SyncStatus string

// Sync outcomes
const (
	SyncSuccess SyncStatus = "success"
	SyncSkipped SyncStatus = "skipped"
	SyncFailed  SyncStatus = "failed"
)

// DiscordStatsInterval is how long cached Discord stats stay fresh
const DiscordStatsInterval = 24 * time.Hour

// ClanSyncTarget is the projection of a clan the stats sync needs
type ClanSyncTarget struct {
	ID                primitive.ObjectID `bson:"_id"`
	DiscordURL        string             `bson:"discordUrl"`
	DiscordLastUpdate *time.Time         `bson:"discordLastUpdate"`
}

// DueForSync reports whether the stats are missing or older than DiscordStatsInterval
func (t ClanSyncTarget) DueForSync(now time.Time) bool {
	return t.DiscordLastUpdate == nil || now.Sub(*t.DiscordLastUpdate) >= DiscordStatsInterval
}

// SyncResult is the per clan outcome of a sync run
type SyncResult struct {
	ID      primitive.ObjectID `json:"id"`
	Status  SyncStatus         `json:"status"`
	Reason  string             `json:"reason,omitempty"`
	Members *int               `json:"members,omitempty"`
	Online  *int               `json:"online,omitempty"`
}

// SyncSummary aggregates a sync run
type SyncSummary struct {
	Total     int       `json:"total"`
	Updated   int       `json:"updated"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncResponse is the body returned by the cron trigger
type SyncResponse struct {
	Success bool        `json:"success"`
	Summary SyncSummary `json:"summary"`
}

// Summarize counts the results of a run finished at now
func Summarize(results []SyncResult, now time.Time) SyncSummary {
	s := SyncSummary{Total: len(results), Timestamp: now}
	for _, r := range results {
		switch r.Status {
		case SyncSuccess:
			s.Updated++
		case SyncSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}
