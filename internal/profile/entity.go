package profile

import (
	"strings"
	"time"
	"unicode"

	"github.com/agentgate/agentgate/pkg/cerr"
)

// Profile is one user's contact record inside the shared profiles document.
type Profile struct {
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is the single shared profiles document, keyed by lowercase user id.
type Document struct {
	LastUpdated time.Time          `json:"last_updated"`
	Profiles    map[string]Profile `json:"profiles"`
}

func NewDocument() *Document {
	return &Document{
		Profiles: map[string]Profile{},
	}
}

func (d *Document) Touch(now time.Time) {
	d.LastUpdated = now
}

// Normalize restores the map invariant after a decode; a stored
// `"profiles": null` would otherwise leave it nil.
func (d *Document) Normalize() {
	if d.Profiles == nil {
		d.Profiles = map[string]Profile{}
	}
}

// Fields carries the writable profile fields of a create request.
type Fields struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Company   string `json:"company"`
	Role      string `json:"role"`
	Bio       string `json:"bio"`
}

// Update carries a partial profile: nil fields keep their current value.
type Update struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Role      *string `json:"role"`
	Bio       *string `json:"bio"`
}

// Merge returns the profile with the update's non-nil fields applied.
// Timestamps are left alone; the repository owns those.
func (p Profile) Merge(u Update) Profile {
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.FirstName != nil {
		p.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		p.LastName = *u.LastName
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.Company != nil {
		p.Company = *u.Company
	}
	if u.Role != nil {
		p.Role = *u.Role
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	return p
}

// Fields extracts the writable fields of a profile, for revalidation after a
// merge.
func (p Profile) Fields() Fields {
	return Fields{
		Email:     p.Email,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Company:   p.Company,
		Role:      p.Role,
		Bio:       p.Bio,
	}
}

// DeriveUserID maps a first name to the user id it is stored under. Callers
// resolve collisions by last-writer-wins; there is no uniqueness negotiation.
func DeriveUserID(firstName string) string {
	return strings.ToLower(strings.TrimSpace(firstName))
}

// ValidateFields checks a (possibly merged) set of profile fields and
// returns an InvalidArgument-coded error naming the first violation.
func ValidateFields(f Fields) error {
	required := []struct {
		name  string
		value string
	}{
		{"email", f.Email},
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
	}
	for _, field := range required {
		if field.value == "" {
			return cerr.NewError(cerr.InvalidArgument, field.name+" is required", nil)
		}
	}
	if !validEmail(f.Email) {
		return cerr.NewError(cerr.InvalidArgument, "Invalid email format", nil)
	}
	if !validUserIDSource(f.FirstName) {
		return cerr.NewError(cerr.InvalidArgument,
			"first_name can only contain letters, numbers, hyphens, and underscores (will be used as user ID)", nil)
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return strings.Contains(email[at+1:], ".")
}

func validUserIDSource(firstName string) bool {
	seen := false
	for _, r := range firstName {
		if r == '-' || r == '_' {
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
		seen = true
	}
	return seen
}
