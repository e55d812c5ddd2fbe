package helpers

import (
	"net/url"
	"strings"

	"github.com/ecopulse/ecopulse/models"
)

// ValidProfileLink reports whether link points at a LinkedIn personal profile
// (linkedin.com/in/<slug>). Company pages, search results and anything that is
// not the personal-profile URL shape are rejected.
func ValidProfileLink(link string) bool {
	link = strings.TrimSpace(link)
	if link == "" {
		return false
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return false
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "in" {
		return false
	}
	return segments[1] != ""
}

// FilterContacts keeps only contacts carrying a validated personal profile
// link. Entries failing validation are dropped, not passed through.
func FilterContacts(in []models.Contact) []models.Contact {
	var out []models.Contact
	for _, c := range in {
		if ValidProfileLink(c.ProfileLink) {
			out = append(out, c)
		}
	}
	return out
}
