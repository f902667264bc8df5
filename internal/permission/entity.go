package permission

import (
	"strings"
	"time"
)

// Document is the single shared permissions document: every user's permitted
// agents in one JSON blob. Keys are lowercase user ids; each agent list is
// duplicate-free and keeps first-add order.
type Document struct {
	LastUpdated time.Time           `json:"last_updated"`
	Permissions map[string][]string `json:"permissions"`
}

func NewDocument() *Document {
	return &Document{
		Permissions: map[string][]string{},
	}
}

func (d *Document) Touch(now time.Time) {
	d.LastUpdated = now
}

// Normalize restores the map invariant after a decode; a stored
// `"permissions": null` would otherwise leave it nil.
func (d *Document) Normalize() {
	if d.Permissions == nil {
		d.Permissions = map[string][]string{}
	}
}

// NormalizeUserID maps an externally supplied identifier to the stored key form.
func NormalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// AddResult reports how an AddAgent call changed the document. All three
// outcomes (user created, agent appended, agent already present) are
// successes.
type AddResult struct {
	UserID          string
	AgentName       string
	Created         bool
	AlreadyPresent  bool
	PermittedAgents []string
}
