// Package profile converts raw snapshot records into canonical profiles
// and renders them as prompt context for email generation.
package profile

import (
	"fmt"
	"strings"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Normalize converts an arbitrary-shaped raw record into a
// CanonicalProfile. It never fails: missing, null, or malformed fields
// degrade to empty defaults. A list input is reduced to its first
// element, matching the shape of multi-record snapshots.
func Normalize(raw any) model.CanonicalProfile {
	m := asRecord(raw)

	p := model.CanonicalProfile{
		Positions: []model.Position{},
		Education: []model.Education{},
		Skills:    []string{},
		Languages: []model.Language{},
	}
	if m == nil {
		return p
	}

	p.ID = stringField(m, "id", "linkedin_id")
	p.Name, p.FirstName, p.LastName = resolveName(m)
	p.Location = stringField(m, "location", "city")
	p.About = stringField(m, "about", "summary", "description")

	p.Positions = normalizePositions(listField(m, "experience", "positions"))
	p.Education = normalizeEducation(listField(m, "education"))
	p.Skills = normalizeSkills(listField(m, "skills"))
	p.Languages = normalizeLanguages(listField(m, "languages"))

	// Headline prefers explicit fields, then the most recent position title.
	p.Headline = stringField(m, "headline", "job_title", "title")
	if p.Headline == "" && len(p.Positions) > 0 {
		p.Headline = p.Positions[0].Title
	}

	p.CurrentCompany = resolveCurrentCompany(m, p.Positions)

	return p
}

// resolveName splits a combined name field on the first whitespace run,
// falling back to explicit first/last fields.
func resolveName(m map[string]any) (name, first, last string) {
	name = stringField(m, "name")
	if name != "" {
		parts := strings.Fields(name)
		first = parts[0]
		last = strings.Join(parts[1:], " ")
		return name, first, last
	}

	first = stringField(m, "first_name")
	last = stringField(m, "last_name")
	name = strings.TrimSpace(first + " " + last)
	return name, first, last
}

// resolveCurrentCompany prefers an explicit current-company object and
// otherwise synthesizes one from the most recent position.
func resolveCurrentCompany(m map[string]any, positions []model.Position) *model.Company {
	if cc := mapField(m, "current_company"); cc != nil {
		c := model.Company{
			Name:        stringField(cc, "name"),
			Link:        stringField(cc, "link"),
			CompanyID:   stringField(cc, "company_id"),
			Description: stringField(cc, "description"),
		}
		if c != (model.Company{}) {
			return &c
		}
	}

	if len(positions) > 0 {
		return &model.Company{
			Name:        positions[0].CompanyName,
			Description: positions[0].Description,
		}
	}
	return nil
}

func normalizePositions(entries []any) []model.Position {
	out := []model.Position{}
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.Position{
			Title:       stringField(m, "title", "position"),
			CompanyName: stringField(m, "company", "company_name"),
			Duration:    stringField(m, "duration"),
			Description: stringField(m, "description"),
			IsCurrent:   boolField(m, "is_current"),
		})
	}
	return out
}

func normalizeEducation(entries []any) []model.Education {
	out := []model.Education{}
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, model.Education{
			Title:       stringField(m, "title", "degree"),
			Institution: stringField(m, "institution", "institute", "school"),
			StartYear:   stringField(m, "start_year"),
			EndYear:     stringField(m, "end_year"),
			Description: stringField(m, "description"),
		})
	}
	return out
}

// normalizeSkills accepts plain strings or keyed objects and silently
// skips entries that match neither shape or carry no name.
func normalizeSkills(entries []any) []string {
	out := []string{}
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			if s := stringField(v, "name", "title"); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// normalizeLanguages drops entries without a title.
func normalizeLanguages(entries []any) []model.Language {
	out := []model.Language{}
	for _, e := range entries {
		switch v := e.(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				out = append(out, model.Language{Title: s})
			}
		case map[string]any:
			title := stringField(v, "title", "name")
			if title == "" {
				continue
			}
			out = append(out, model.Language{
				Title:       title,
				Proficiency: stringField(v, "proficiency", "subtitle"),
			})
		}
	}
	return out
}

// asRecord reduces raw input to a single record map. Lists collapse to
// their first map element; anything else yields nil.
func asRecord(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case []any:
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				return m
			}
		}
	}
	return nil
}

// stringField returns the first non-empty string value among keys,
// coercing scalar numbers so year fields survive JSON decoding.
func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%v", v)
		case int:
			return fmt.Sprintf("%d", v)
		}
	}
	return ""
}

// listField returns the first list-shaped value among keys; absent or
// non-sequence values are treated as empty.
func listField(m map[string]any, keys ...string) []any {
	for _, k := range keys {
		if l, ok := m[k].([]any); ok {
			return l
		}
	}
	return nil
}

func mapField(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}
