// internal/domain/profile.go
package domain

import "time"

// SignupMethod is how an identity first registered.
type SignupMethod string

const (
	SignupMethodPassword SignupMethod = "password"
	SignupMethodGoogle   SignupMethod = "google"
	SignupMethodPhone    SignupMethod = "phone"
)

// Valid reports whether m is a supported signup method.
func (m SignupMethod) Valid() bool {
	switch m {
	case SignupMethodPassword, SignupMethodGoogle, SignupMethodPhone:
		return true
	}
	return false
}

// Profile is the user-profile record. The ledger never reads it; the reward policy does.
type Profile struct {
	UserID       string       `db:"user_id" json:"user_id"`
	Nickname     string       `db:"nickname" json:"nickname"`
	Email        string       `db:"email" json:"email"`
	Phone        string       `db:"phone" json:"phone"`
	PhotoURL     string       `db:"photo_url" json:"photo_url"`
	FirstName    string       `db:"first_name" json:"first_name"`
	LastName     string       `db:"last_name" json:"last_name"`
	Neighborhood string       `db:"neighborhood" json:"neighborhood"`
	IsAnonymous  bool         `db:"is_anonymous" json:"is_anonymous"`
	SignupMethod SignupMethod `db:"signup_method" json:"signup_method"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// MergeMissing copies non-empty contact fields from incoming into p where p has none.
// It reports whether anything changed.
func (p *Profile) MergeMissing(incoming *Profile) bool {
	changed := false
	fill := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}
	fill(&p.Nickname, incoming.Nickname)
	fill(&p.Email, incoming.Email)
	fill(&p.Phone, incoming.Phone)
	fill(&p.PhotoURL, incoming.PhotoURL)
	fill(&p.FirstName, incoming.FirstName)
	fill(&p.LastName, incoming.LastName)
	fill(&p.Neighborhood, incoming.Neighborhood)
	if p.IsAnonymous && !incoming.IsAnonymous {
		p.IsAnonymous = false
		changed = true
	}
	return changed
}

// DisplayName is the name shown next to content the user creates.
func (p *Profile) DisplayName() string {
	if p == nil || p.Nickname == "" {
		return "Usuario Toche"
	}
	return p.Nickname
}
