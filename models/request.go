package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// CreateClanRequest is the payload accepted when listing a new clan
type CreateClanRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=100"`
	ImageURL    *string  `json:"imageUrl" validate:"omitnil,url"`
	Description string   `json:"description" validate:"required,min=10,max=200"`
	Tags        []string `json:"tags" validate:"required,min=1,max=5,unique,dive,clantag"`
	Location    string   `json:"location" validate:"required,location"`
	Language    string   `json:"language" validate:"required"`
	DiscordURL  string   `json:"discordUrl" validate:"required,discordinvite"`
}

// Normalize trims text fields, lower-cases tags and turns an empty image URL into nil
func (c *CreateClanRequest) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.Language = strings.TrimSpace(c.Language)
	c.DiscordURL = strings.TrimSpace(c.DiscordURL)
	c.Location = strings.TrimSpace(c.Location)
	c.ImageURL = normalizeImageURL(c.ImageURL)
	for i, t := range c.Tags {
		c.Tags[i] = strings.ToLower(strings.TrimSpace(t))
	}
}

// Validate normalises and validates the payload
func (c *CreateClanRequest) Validate() error {
	c.Normalize()
	return ValidateStruct(c)
}

// ToClan builds the clan document for a validated request
func (c CreateClanRequest) ToClan(ownerID string, now time.Time) Clan {
	location, _ := ParseLocation(c.Location)
	return Clan{
		OwnerID:      ownerID,
		Name:         c.Name,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		Tags:         toTags(c.Tags),
		Location:     location,
		Language:     c.Language,
		DiscordURL:   c.DiscordURL,
		LastBumpedAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// UpdateClanRequest is a partial update; nil fields are left untouched.
// ImageURL can be cleared by sending null, so its presence is tracked separately.
type UpdateClanRequest struct {
	Name        *string   `json:"name" validate:"omitnil,min=3,max=100"`
	ImageURL    *string   `json:"imageUrl" validate:"omitnil,url"`
	Description *string   `json:"description" validate:"omitnil,min=10,max=200"`
	Tags        *[]string `json:"tags" validate:"omitnil,min=1,max=5,unique,dive,clantag"`
	Location    *string   `json:"location" validate:"omitnil,location"`
	Language    *string   `json:"language" validate:"omitnil,min=1"`
	DiscordURL  *string   `json:"discordUrl" validate:"omitnil,discordinvite"`

	fields map[string]bool
}

var updatableFields = map[string]bool{
	"name": true, "imageUrl": true, "description": true, "tags": true,
	"location": true, "language": true, "discordUrl": true,
}

// ErrMalformedBody is returned when the request body is not a JSON object
var ErrMalformedBody = errors.New("request body must be a JSON object")

// DecodeUpdateClanRequest reads a partial update. Fields outside the mutable
// display attributes are rejected as validation errors.
func DecodeUpdateClanRequest(body []byte) (UpdateClanRequest, error) {
	var req UpdateClanRequest
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return req, ErrMalformedBody
	}

	var unknown ValidationError
	req.fields = make(map[string]bool, len(raw))
	for k := range raw {
		if !updatableFields[k] {
			unknown = append(unknown, FieldError{Field: k, Reason: "unknown_field", Message: "cannot be updated"})
			continue
		}
		req.fields[k] = true
	}
	if len(unknown) > 0 {
		sort.Slice(unknown, func(i, j int) bool { return unknown[i].Field < unknown[j].Field })
		return req, unknown
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&req); err != nil {
		return req, ValidationError{{Field: "body", Reason: "type", Message: err.Error()}}
	}
	for _, nullable := range []struct {
		key string
		set bool
	}{
		{"name", req.Name != nil}, {"description", req.Description != nil}, {"tags", req.Tags != nil},
		{"location", req.Location != nil}, {"language", req.Language != nil}, {"discordUrl", req.DiscordURL != nil},
	} {
		if req.fields[nullable.key] && !nullable.set {
			return req, ValidationError{{Field: nullable.key, Reason: "required", Message: "cannot be null"}}
		}
	}
	return req, nil
}

// Has reports whether the payload contained key
func (u UpdateClanRequest) Has(key string) bool {
	return u.fields[key]
}

// ImageOnly reports whether imageUrl is the only field in the payload.
// Such updates may be applied by any signed in user so broken images can be cleaned up.
func (u UpdateClanRequest) ImageOnly() bool {
	return len(u.fields) == 1 && u.fields["imageUrl"]
}

// Validate normalises and validates the fields present in the payload
func (u *UpdateClanRequest) Validate() error {
	if u.Name != nil {
		*u.Name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		*u.Description = strings.TrimSpace(*u.Description)
	}
	if u.Language != nil {
		*u.Language = strings.TrimSpace(*u.Language)
	}
	if u.DiscordURL != nil {
		*u.DiscordURL = strings.TrimSpace(*u.DiscordURL)
	}
	if u.Tags != nil {
		for i, t := range *u.Tags {
			(*u.Tags)[i] = strings.ToLower(strings.TrimSpace(t))
		}
	}
	u.ImageURL = normalizeImageURL(u.ImageURL)
	return ValidateStruct(u)
}

// SetDocument builds the $set document for a validated update
func (u UpdateClanRequest) SetDocument(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Has("imageUrl") {
		set["imageUrl"] = u.ImageURL
	}
	if u.Tags != nil {
		set["tags"] = toTags(*u.Tags)
	}
	if u.Location != nil {
		location, _ := ParseLocation(*u.Location)
		set["location"] = location
	}
	if u.Language != nil {
		set["language"] = *u.Language
	}
	if u.DiscordURL != nil {
		set["discordUrl"] = *u.DiscordURL
	}
	return set
}

// String is used when logging update payloads
func (u UpdateClanRequest) String() string {
	keys := make([]string, 0, len(u.fields))
	for k := range u.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("update%v", keys)
}

func normalizeImageURL(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toTags(values []string) []Tag {
	tags := make([]Tag, 0, len(values))
	for _, v := range values {
		tags = append(tags, Tag(v))
	}
	return tags
}
