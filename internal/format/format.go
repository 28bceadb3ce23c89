// Package format adapts model output to what each chat platform renders.
package format

import "regexp"

// Platform identifies an outbound channel.
type Platform string

const (
	WhatsApp Platform = "whatsapp"
	Telegram Platform = "telegram"
)

var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)

// Format rewrites text for platform. WhatsApp cannot render markdown links, so they
// collapse to their label; Telegram gets the text unchanged and is sent in Markdown
// parse mode. Nothing is truncated or re-encoded.
func Format(text string, platform Platform) string {
	switch platform {
	case WhatsApp:
		return markdownLink.ReplaceAllString(text, "$1")
	default:
		return text
	}
}
