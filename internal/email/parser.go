package email

import (
	"regexp"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

var (
	subjectRe = regexp.MustCompile(`Subject:[ \t]*(.+)`)
	bodyRe    = regexp.MustCompile(`(?s)Email:[ \t]*(.*)\z`)
)

// Parse extracts a structured draft from the raw workflow output. It
// never fails: a missing label leaves the corresponding field empty and
// the caller decides whether the draft is usable. Two strategies are
// tried for the body: a labeled match anchored to end-of-text, then a
// loose split on the first literal "Email:" token.
func Parse(raw string) model.EmailDraft {
	draft := model.EmailDraft{RawText: raw}

	if m := subjectRe.FindStringSubmatch(raw); m != nil {
		draft.Subject = strings.TrimSpace(m[1])
	}

	if m := bodyRe.FindStringSubmatch(raw); m != nil {
		draft.Body = strings.TrimSpace(m[1])
	} else if idx := strings.Index(raw, "Email:"); idx >= 0 {
		draft.Body = strings.TrimSpace(raw[idx+len("Email:"):])
	}

	return draft
}
