package session

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultOwner is the gist owner used when the identifier names none.
	DefaultOwner = "stormfiber"

	// IDPrefix is stripped from gist ids ("MEGA-MD_<id>").
	IDPrefix = "MEGA-MD_"

	gistRawURL = "https://gist.githubusercontent.com/%s/%s/raw/creds.json"
)

var absoluteURL = regexp.MustCompile(`(?i)^https?://`)

// ResolveURL turns a session identifier into the URL the credentials are fetched from.
//
// Accepted shapes, first match wins:
//
//	https://host/path      used verbatim
//	owner/MEGA-MD_<id>     owner's gist <id>
//	MEGA-MD_<id> or <id>   defaultOwner's gist <id>
//
// An empty defaultOwner falls back to DefaultOwner.
func ResolveURL(identifier, defaultOwner string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", ErrInvalidIdentifier
	}

	if absoluteURL.MatchString(identifier) {
		return identifier, nil
	}

	owner := defaultOwner
	if owner == "" {
		owner = DefaultOwner
	}

	gistPart := identifier
	if left, right, found := strings.Cut(identifier, "/"); found {
		if left != "" {
			owner = left
		}
		gistPart = right
	}

	gistID := strings.TrimPrefix(gistPart, IDPrefix)
	if gistID == "" {
		return "", fmt.Errorf("%w: no gist id in %q", ErrInvalidIdentifier, identifier)
	}

	return fmt.Sprintf(gistRawURL, owner, gistID), nil
}
