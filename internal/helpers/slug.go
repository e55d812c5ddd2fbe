package helpers

import "strings"

// Slug lowercases s, replaces every non-alphanumeric rune with '-', trims
// leading/trailing dashes and caps the result at max bytes.
func Slug(s string, max int) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	out := b.String()
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return strings.Trim(out, "-")
}

// ReportFileName derives the deterministic markdown artifact name for a
// record: its source-reported date plus a capped slug of the headline.
func ReportFileName(date, title string) string {
	return date + "-" + Slug(title, 60) + ".md"
}

// ImageFileName derives the PNG artifact name for a record illustration.
func ImageFileName(date, title string) string {
	return date + "-" + Slug(title, 60) + ".png"
}
