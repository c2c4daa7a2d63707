package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
		ok   bool
	}{
		{"Europe/Africa", LocationEuropeAfrica, true},
		{"Europe_Africa", LocationEuropeAfrica, true},
		{"Asia/Oceania", LocationAsiaOceania, true},
		{"Americas", LocationAmericas, true},
		{" Worldwide ", LocationWorldwide, true},
		{"europe/africa", "", false},
		{"Mars", "", false},
	}
	for _, tt := range tests {
		got, err := ParseLocation(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrUnknownLocation, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
		assert.True(t, got.Valid())
	}
}

func TestLocationRoundTripsBetweenForms(t *testing.T) {
	b, err := json.Marshal(LocationAsiaOceania)
	require.NoError(t, err)
	assert.Equal(t, `"Asia/Oceania"`, string(b))

	var l Location
	require.NoError(t, json.Unmarshal(b, &l))
	assert.Equal(t, LocationAsiaOceania, l)

	raw, err := bson.Marshal(bson.M{"location": l})
	require.NoError(t, err)
	var stored bson.M
	require.NoError(t, bson.Unmarshal(raw, &stored))
	assert.Equal(t, "Asia_Oceania", stored["location"])
}

func TestTagValid(t *testing.T) {
	assert.True(t, TagHardcore.Valid())
	assert.False(t, Tag("competitive").Valid())
	assert.Len(t, TagOptions, 8)
}

func TestLanguageOptionsMultilingualFirst(t *testing.T) {
	opts := LanguageOptions()
	require.NotEmpty(t, opts)
	assert.Equal(t, "Multilingual", opts[0].Value)
	assert.Equal(t, "Arabic", opts[1].Value)
}

func TestSetDiscordStatsSetsBothCounts(t *testing.T) {
	now := time.Now()
	c := Clan{}
	c.SetDiscordStats(DiscordStats{Members: 0, Online: 0}, now)

	require.NotNil(t, c.DiscordMembers)
	require.NotNil(t, c.DiscordOnline)
	assert.Equal(t, 0, *c.DiscordMembers)
	assert.Equal(t, now, *c.DiscordLastUpdate)
}

func TestClanJSONUsesWireLocation(t *testing.T) {
	c := Clan{Name: "Iron Wolves", Location: LocationEuropeAfrica, Tags: []Tag{TagPvP}}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"location":"Europe/Africa"`)
	assert.Contains(t, string(b), `"discordMembers":null`)
}
