package short

import (
	"regexp"
	"strings"
)

var (
	schemePattern = regexp.MustCompile(`(?i)^https?://`)
	domainPattern = regexp.MustCompile(`(?i)^[a-z0-9.-]+\.[a-z]{2,}([/?#].*)?$`)
	shapePattern  = regexp.MustCompile(`(?i)^https?://.{3,}$`)
)

// ExtractURL picks the URL-looking token out of free text: the first http(s)
// token, else the first domain-like token, else the first word.
func ExtractURL(text string) string {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return ""
	}

	for _, p := range parts {
		if schemePattern.MatchString(p) {
			return p
		}
	}
	for _, p := range parts {
		if domainPattern.MatchString(p) {
			return p
		}
	}
	return parts[0]
}

// NormalizeURL trims raw and adds "http://" when it has no scheme.
func NormalizeURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if !schemePattern.MatchString(u) {
		u = "http://" + u
	}
	return u
}

// validShape is a sanity check only: scheme plus at least three characters.
func validShape(u string) bool {
	return shapePattern.MatchString(u)
}

// stripCommand removes a leading "<prefix><name>" from text for any of names.
func stripCommand(text, prefix string, names []string) string {
	t := strings.TrimSpace(text)
	if prefix == "" || !strings.HasPrefix(t, prefix) {
		return t
	}

	rest := strings.TrimLeft(strings.TrimPrefix(t, prefix), " \t")
	word := rest
	if i := strings.IndexFunc(rest, isSpace); i >= 0 {
		word = rest[:i]
	}

	for _, n := range names {
		if strings.EqualFold(word, n) {
			return strings.TrimSpace(rest[len(word):])
		}
	}
	return t
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
