package models

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Pagination defaults for the listing endpoint
const (
	DefaultPageSize = 9
	MaxPageSize     = 50

	// MaxPage keeps (page-1)*MaxPageSize within an int64 skip
	MaxPage = math.MaxInt64/MaxPageSize + 1
)

// ClanFilter is the parsed set of listing query parameters.
// An empty Tags slice, a zero Location and an empty Language each match everything.
type ClanFilter struct {
	Tags     []Tag
	Location Location
	Language string
	Page     int
	PageSize int
}

// ParseClanFilter reads tags[] (or tags), location, language, page and limit.
// Bad page or limit values fall back to defaults; unknown tags or locations
// are reported as field errors.
func ParseClanFilter(q url.Values) (ClanFilter, error) {
	f := ClanFilter{
		Page:     parsePositive(q.Get("page"), 1),
		PageSize: parsePositive(q.Get("limit"), DefaultPageSize),
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}

	var errs ValidationError
	seen := map[Tag]bool{}
	for _, raw := range append(q["tags[]"], q["tags"]...) {
		for _, part := range strings.Split(raw, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			t := Tag(part)
			if !t.Valid() {
				errs = append(errs, FieldError{Field: "tags", Reason: "clantag", Message: "unknown tag " + strconv.Quote(part)})
				continue
			}
			if !seen[t] {
				seen[t] = true
				f.Tags = append(f.Tags, t)
			}
		}
	}

	if loc := strings.TrimSpace(q.Get("location")); loc != "" && !strings.EqualFold(loc, AllFilter) {
		parsed, err := ParseLocation(loc)
		if err != nil {
			errs = append(errs, FieldError{Field: "location", Reason: "location", Message: "unknown location " + strconv.Quote(loc)})
		}
		f.Location = parsed
	}

	if lang := strings.TrimSpace(q.Get("language")); lang != "" && !strings.EqualFold(lang, AllFilter) {
		f.Language = lang
	}

	if len(errs) > 0 {
		return f, errs
	}
	return f, nil
}

func parsePositive(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
