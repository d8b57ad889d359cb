package translation

import (
	"regexp"
	"strings"
)

var (
	// Labels models like to echo in front of the translation
	knownLabel = regexp.MustCompile(`(?i)^(?:here is the translation|here's the translation|the translation is|translated text|translation|result|output|answer)\s*:\s*`)

	// A single leading "Word:" label in any script. Requires whitespace after
	// the colon so that things like "http://" or "10:30" survive.
	genericLabel = regexp.MustCompile(`^\p{L}[\p{L}\p{N}_]*:\s+`)
)

// Normalize strips LLM chatter from a raw model reply: leading labels such
// as "Translation:", one pair of wrapping quotes and repeated whitespace.
// Whitespace collapsing, label and quote stripping repeat until the text is
// stable, which keeps Normalize idempotent. Collapsing runs first so the
// label patterns only ever see single ASCII spaces.
func Normalize(raw string) string {
	text := raw

	for {
		before := text
		text = strings.Join(strings.Fields(text), " ")
		text = stripLabel(text)
		text = stripQuotes(text)
		if text == before {
			break
		}
	}

	return text
}

func stripLabel(text string) string {
	if loc := knownLabel.FindStringIndex(text); loc != nil {
		return text[loc[1]:]
	}
	if loc := genericLabel.FindStringIndex(text); loc != nil {
		return text[loc[1]:]
	}
	return text
}

func stripQuotes(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if first == last && (first == '"' || first == '\'') {
		return text[1 : len(text)-1]
	}
	return text
}
