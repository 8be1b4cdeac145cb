// Package models defines data structures and domain types.
package models

import (
	"strings"

	"github.com/google/uuid"
)

// Credential is one service-account key plus the optional org identity the
// caller already knows. It is built from CLI flags or one element of orgs.json
// and never mutated afterwards.
type Credential struct {
	APIKey  string `json:"api_key"`
	OrgID   string `json:"org_id,omitempty"`
	OrgName string `json:"org_name,omitempty"`
}

// HasIdentity reports whether both the org id and display name are known,
// in which case no identity lookup is needed.
func (c Credential) HasIdentity() bool {
	return c.OrgID != "" && c.OrgName != ""
}

// RedactedKey returns the API key with everything but its prefix and last four
// characters hidden, e.g. "lsv2_sk_...9f3a".
func (c Credential) RedactedKey() string {
	key := strings.TrimSpace(c.APIKey)
	if len(key) <= 12 {
		return "***"
	}
	return key[:8] + "..." + key[len(key)-4:]
}

// Descriptor identifies the credential in warnings and failure lists without
// leaking the key.
func (c Credential) Descriptor() string {
	if c.OrgName != "" {
		return c.OrgName
	}
	return c.RedactedKey()
}

// OrgIdentity is the resolved tenant behind a credential. OrgID is the
// deduplication key across credentials.
type OrgIdentity struct {
	OrgID   string `json:"id"`
	OrgName string `json:"display_name"`
}

// Key returns the org id in canonical form, so ids differing only in case or
// UUID spelling compare equal. Ids that are not UUIDs are lower-cased.
func (o OrgIdentity) Key() string {
	return OrgKey(o.OrgID)
}

// OrgKey canonicalizes an org id.
func OrgKey(id string) string {
	id = strings.TrimSpace(id)
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return strings.ToLower(id)
}
