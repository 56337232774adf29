// Package discord renders classified GitLab events into Discord webhook
// embeds and delivers them under Discord's rate limit.
package discord

// Discord's documented limits for a single embed.
const (
	TitleMax       = 256
	AuthorMax      = 256
	DescriptionMax = 2048
	FooterMax      = 2048
)

// Embed colors, one per semantic tone.
const (
	ColorInfo  = 0x1F78D1
	ColorAlert = 0xFC9403
	ColorGood  = 0x1AAA55
	ColorBad   = 0xDB3B21
	ColorNote  = 0xFC6D26
)

// Embed is the notification record sent to the Discord webhook. Field
// names are part of the wire contract; optional fields are omitted from
// the JSON entirely rather than sent as null.
type Embed struct {
	Author      Author `json:"author"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color"`
	Footer      Footer `json:"footer"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Author identifies the user that triggered the event.
type Author struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

// Footer carries the project path and avatar.
type Footer struct {
	Text    string `json:"text"`
	IconURL string `json:"icon_url,omitempty"`
}

// Truncate bounds s to max runes. When s is longer, the result keeps
// max-1 runes and appends an ellipsis, so multi-byte characters are
// never split.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
