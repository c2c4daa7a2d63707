package models

import "sort"

// multilingual always sorts first in the language list
const multilingual = "Multilingual"

var languages = []string{
	multilingual, "English", "Spanish", "French", "German", "Portuguese", "Russian",
	"Korean", "Japanese", "Chinese (Simplified)", "Chinese (Traditional)", "Turkish",
	"Polish", "Italian", "Thai", "Vietnamese", "Indonesian", "Dutch", "Arabic",
	"Swedish", "Norwegian", "Danish", "Finnish", "Czech", "Hungarian", "Romanian",
}

// LanguageOptions returns the suggested languages, Multilingual first and the rest alphabetical.
// Language on a clan stays free-form; this list only feeds the frontend select.
func LanguageOptions() []Option {
	opts := make([]Option, 0, len(languages))
	for _, l := range languages {
		opts = append(opts, Option{Label: l, Value: l})
	}
	sort.SliceStable(opts, func(i, j int) bool {
		if opts[i].Value == multilingual {
			return opts[j].Value != multilingual
		}
		if opts[j].Value == multilingual {
			return false
		}
		return opts[i].Label < opts[j].Label
	})
	return opts
}

// DirectoryOptions is the payload of the options endpoint
type DirectoryOptions struct {
	Tags      []Option `json:"tags"`
	Locations []Option `json:"locations"`
	Languages []Option `json:"languages"`
}

// NewDirectoryOptions collects all option lists
func NewDirectoryOptions() DirectoryOptions {
	return DirectoryOptions{
		Tags:      TagOptions,
		Locations: LocationOptions(),
		Languages: LanguageOptions(),
	}
}
