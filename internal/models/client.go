package models

import (
	"strings"
	"time"
)

// ApiClient is an authenticated caller of the HTTP API, identified by
// its API key.
type ApiClient struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	ApiKey      string     `json:"-"` // never serialized
	IsActive    bool       `json:"is_active"`
	Permissions []string   `json:"permissions"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

// HasPermission checks whether the client holds a permission such as
// "catalog:read". Wildcards are supported: "catalog:*" grants every
// catalog permission and "*" grants everything.
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}
	for _, perm := range c.Permissions {
		if perm == required || perm == "*" {
			return true
		}
		if strings.HasSuffix(perm, ":*") && strings.HasPrefix(required, strings.TrimSuffix(perm, "*")) {
			return true
		}
	}
	return false
}

// MaskedApiKey returns a log-safe prefix of the API key.
func (c *ApiClient) MaskedApiKey() string {
	if len(c.ApiKey) < 8 {
		return "***"
	}
	return c.ApiKey[:8] + "..."
}
