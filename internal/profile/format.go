package profile

import (
	"fmt"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// FormatPerson renders the canonical profile as the labeled text block
// consumed by the profile analysis stage. Field order and labels are
// load-bearing: the stage prompts reference them verbatim.
func FormatPerson(p model.CanonicalProfile) string {
	var b strings.Builder
	writeLine(&b, "first_name", p.FirstName)
	writeLine(&b, "last_name", p.LastName)
	writeLine(&b, "headline", p.Headline)
	writeLine(&b, "location", p.Location)
	writeLine(&b, "summary", p.About)
	writeLine(&b, "company", p.CompanyName())
	return b.String()
}

// FormatCompany renders the current-company context consumed by the
// company analysis stage.
func FormatCompany(p model.CanonicalProfile) string {
	var b strings.Builder
	writeLine(&b, "company", p.CompanyName())
	writeLine(&b, "company_description", p.CompanyDescription())
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
