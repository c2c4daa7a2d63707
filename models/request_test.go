package models

import (
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func validCreateRequest() CreateClanRequest {
	return CreateClanRequest{
		Name:        gofakeit.LetterN(12),
		Description: gofakeit.LetterN(40),
		Tags:        []string{"pve", "Trading"},
		Location:    "Europe/Africa",
		Language:    "English",
		DiscordURL:  "https://discord.gg/paxdei",
	}
}

func fieldsOf(err error) []string {
	verr, ok := err.(ValidationError)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(verr))
	for _, fe := range verr {
		out = append(out, fe.Field)
	}
	return out
}

func TestCreateClanRequestValid(t *testing.T) {
	req := validCreateRequest()
	empty := "  "
	req.ImageURL = &empty

	require.NoError(t, req.Validate())
	assert.Nil(t, req.ImageURL)
	assert.Equal(t, []string{"pve", "trading"}, req.Tags)
}

func TestCreateClanRequestFieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CreateClanRequest)
		field  string
	}{
		{"short name", func(r *CreateClanRequest) { r.Name = "ab" }, "name"},
		{"long name", func(r *CreateClanRequest) { r.Name = strings.Repeat("a", 101) }, "name"},
		{"short description", func(r *CreateClanRequest) { r.Description = "too short" }, "description"},
		{"long description", func(r *CreateClanRequest) { r.Description = strings.Repeat("d", 201) }, "description"},
		{"no tags", func(r *CreateClanRequest) { r.Tags = []string{} }, "tags"},
		{"six tags", func(r *CreateClanRequest) {
			r.Tags = []string{"pve", "pvp", "pvx", "crafting", "casual", "hardcore"}
		}, "tags"},
		{"unknown tag", func(r *CreateClanRequest) { r.Tags = []string{"pve", "competitive"} }, "tags[1]"},
		{"bad location", func(r *CreateClanRequest) { r.Location = "Mars" }, "location"},
		{"blank language", func(r *CreateClanRequest) { r.Language = "   " }, "language"},
		{"not an invite", func(r *CreateClanRequest) { r.DiscordURL = "https://example.com/paxdei" }, "discordUrl"},
		{"invite without code", func(r *CreateClanRequest) { r.DiscordURL = "https://discord.gg/" }, "discordUrl"},
		{"bad image", func(r *CreateClanRequest) { s := "not a url"; r.ImageURL = &s }, "imageUrl"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateRequest()
			tt.mutate(&req)
			err := req.Validate()
			require.Error(t, err)
			assert.Contains(t, fieldsOf(err), tt.field)
		})
	}
}

func TestCreateClanRequestToClan(t *testing.T) {
	req := validCreateRequest()
	require.NoError(t, req.Validate())
	now := time.Now().UTC()

	c := req.ToClan("user-1", now)
	assert.Equal(t, "user-1", c.OwnerID)
	assert.Equal(t, LocationEuropeAfrica, c.Location)
	assert.Equal(t, []Tag{TagPvE, TagTrading}, c.Tags)
	assert.Equal(t, now, c.LastBumpedAt)
	assert.Equal(t, now, c.CreatedAt)
	assert.Nil(t, c.DiscordMembers)
}

func TestDecodeUpdateClanRequestImageOnly(t *testing.T) {
	for _, body := range []string{`{"imageUrl": null}`, `{"imageUrl": ""}`} {
		req, err := DecodeUpdateClanRequest([]byte(body))
		require.NoError(t, err)
		assert.True(t, req.ImageOnly(), body)
		require.NoError(t, req.Validate())

		set := req.SetDocument(time.Now())
		v, ok := set["imageUrl"]
		assert.True(t, ok)
		assert.Nil(t, v)
	}
}

func TestDecodeUpdateClanRequestImageOnlyShape(t *testing.T) {
	req, err := DecodeUpdateClanRequest([]byte(`{"imageUrl": "https://i.imgur.com/x.png"}`))
	require.NoError(t, err)
	assert.True(t, req.ImageOnly())

	req, err = DecodeUpdateClanRequest([]byte(`{"imageUrl": null, "name": "New name"}`))
	require.NoError(t, err)
	assert.False(t, req.ImageOnly())

	req, err = DecodeUpdateClanRequest([]byte(`{"name": "New name"}`))
	require.NoError(t, err)
	assert.False(t, req.ImageOnly())
}

func TestDecodeUpdateClanRequestRejectsImmutableFields(t *testing.T) {
	_, err := DecodeUpdateClanRequest([]byte(`{"ownerId": "me", "lastBumpedAt": "2024-01-01T00:00:00Z", "name": "abc"}`))
	require.Error(t, err)
	assert.Equal(t, []string{"lastBumpedAt", "ownerId"}, fieldsOf(err))
}

func TestDecodeUpdateClanRequestMalformed(t *testing.T) {
	for _, body := range []string{``, `[]`, `null`, `{"name":`} {
		_, err := DecodeUpdateClanRequest([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedBody, body)
	}

	_, err := DecodeUpdateClanRequest([]byte(`{"name": null}`))
	assert.Equal(t, []string{"name"}, fieldsOf(err))

	_, err = DecodeUpdateClanRequest([]byte(`{"tags": "pve"}`))
	assert.Equal(t, []string{"body"}, fieldsOf(err))
}

func TestUpdateClanRequestSetDocument(t *testing.T) {
	req, err := DecodeUpdateClanRequest([]byte(`{"name": " Iron Wolves ", "location": "Asia/Oceania", "tags": ["PvE"]}`))
	require.NoError(t, err)
	require.NoError(t, req.Validate())

	now := time.Now()
	set := req.SetDocument(now)
	assert.Equal(t, bson.M{
		"updatedAt": now,
		"name":      "Iron Wolves",
		"location":  LocationAsiaOceania,
		"tags":      []Tag{TagPvE},
	}, set)
	assert.False(t, req.Has("imageUrl"))
}

func TestUpdateClanRequestValidation(t *testing.T) {
	req, err := DecodeUpdateClanRequest([]byte(`{"name": "x", "language": " ", "discordUrl": "discord.gg/abc"}`))
	require.NoError(t, err)

	err = req.Validate()
	require.Error(t, err)
	assert.ElementsMatch(t, []string{"name", "language", "discordUrl"}, fieldsOf(err))
}
