package models

// Tag is one of the fixed play-style labels a clan can carry
type Tag string

// Tag values accepted on clans
const (
	TagPvE      Tag = "pve"
	TagPvP      Tag = "pvp"
	TagPvX      Tag = "pvx"
	TagCrafting Tag = "crafting"
	TagCasual   Tag = "casual"
	TagHardcore Tag = "hardcore"
	TagRoleplay Tag = "roleplay"
	TagTrading  Tag = "trading"
)

// MaxTags is the most tags a single clan may select
const MaxTags = 5

// Option is a label/value pair rendered by the directory frontend
type Option struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// TagOptions lists every tag in display order
var TagOptions = []Option{
	{Label: "PvE", Value: string(TagPvE), Description: "Player versus Environment focused"},
	{Label: "PvP", Value: string(TagPvP), Description: "Player versus Player focused"},
	{Label: "PvX", Value: string(TagPvX), Description: "Both PvE and PvP focused"},
	{Label: "Crafting", Value: string(TagCrafting), Description: "Focused on crafting and resource gathering"},
	{Label: "Casual", Value: string(TagCasual), Description: "Relaxed, casual gameplay"},
	{Label: "Hardcore", Value: string(TagHardcore), Description: "Dedicated, serious gameplay"},
	{Label: "Roleplay", Value: string(TagRoleplay), Description: "In-character roleplay focused"},
	{Label: "Trading", Value: string(TagTrading), Description: "Trading and economy focused"},
}

// Valid reports whether t is one of the known tags
func (t Tag) Valid() bool {
	switch t {
	case TagPvE, TagPvP, TagPvX, TagCrafting, TagCasual, TagHardcore, TagRoleplay, TagTrading:
		return true
	}
	return false
}
