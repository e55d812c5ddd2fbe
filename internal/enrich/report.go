package enrich

import (
	"fmt"
	"strings"

	"github.com/ecopulse/ecopulse/models"
)

// renderReport wraps the model-written body in the fixed document schema:
// YAML front matter (title, date, classification fields, contact attribution),
// the prose body, and a source-link footer.
func renderReport(rec models.NewsRecord, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", rec.Title)
	fmt.Fprintf(&b, "date: %s\n", rec.Date)
	fmt.Fprintf(&b, "company: %q\n", rec.Company)
	if rec.Source != "" {
		fmt.Fprintf(&b, "publisher: %q\n", rec.Source)
	}
	if url := rec.BestURL(); url != "" {
		fmt.Fprintf(&b, "source: %s\n", url)
	}
	if len(rec.Contacts) > 0 {
		b.WriteString("contacts:\n")
		for _, c := range rec.Contacts {
			fmt.Fprintf(&b, "  - name: %q\n", c.Name)
			if c.Title != "" {
				fmt.Fprintf(&b, "    title: %q\n", c.Title)
			}
			if c.ProfileLink != "" {
				fmt.Fprintf(&b, "    profile: %s\n", c.ProfileLink)
			}
		}
	}
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	if url := rec.BestURL(); url != "" {
		fmt.Fprintf(&b, "\nSource: %s\n", url)
	}
	return b.String()
}
