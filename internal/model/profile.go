package model

// CanonicalProfile is the normalized, defaulted internal representation
// of a raw profile record. It is derived at fetch time and never
// persisted. Collection fields are never nil after normalization.
type CanonicalProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Headline string `json:"headline"`
	Location string `json:"location"`
	About    string `json:"about"`

	CurrentCompany *Company `json:"current_company,omitempty"`

	Positions []Position  `json:"positions"`
	Education []Education `json:"education"`
	Skills    []string    `json:"skills"`
	Languages []Language  `json:"languages"`
}

// Company describes the profile's current employer.
type Company struct {
	Name        string `json:"name"`
	Link        string `json:"link,omitempty"`
	CompanyID   string `json:"company_id,omitempty"`
	Description string `json:"description,omitempty"`
}

// Position is a single entry in the profile's work history.
type Position struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	IsCurrent   bool   `json:"is_current"`
}

// Education is a single entry in the profile's education history.
type Education struct {
	Title       string `json:"title"`
	Institution string `json:"institution"`
	StartYear   string `json:"start_year,omitempty"`
	EndYear     string `json:"end_year,omitempty"`
	Description string `json:"description,omitempty"`
}

// Language is a spoken language with an optional proficiency level.
type Language struct {
	Title       string `json:"title"`
	Proficiency string `json:"proficiency,omitempty"`
}

// CompanyName returns the current company name, preferring the explicit
// current-company record and falling back to the most recent position.
func (p CanonicalProfile) CompanyName() string {
	if p.CurrentCompany != nil && p.CurrentCompany.Name != "" {
		return p.CurrentCompany.Name
	}
	if len(p.Positions) > 0 {
		return p.Positions[0].CompanyName
	}
	return ""
}

// CompanyDescription returns the current company description, falling
// back to the most recent position's description.
func (p CanonicalProfile) CompanyDescription() string {
	if p.CurrentCompany != nil && p.CurrentCompany.Description != "" {
		return p.CurrentCompany.Description
	}
	if len(p.Positions) > 0 {
		return p.Positions[0].Description
	}
	return ""
}
