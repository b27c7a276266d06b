// Package account defines the signed-in shopper identity: the OAuth profile
// received from the identity provider, the enrichment returned by the backend
// sync and the claims carried in the session token.
package account

import "time"

// Profile is the identity reported by a third-party OAuth provider.
type Profile struct {
	Name       string `json:"name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Avatar     string `json:"avatar,omitempty" validate:"omitempty,url"`
	Provider   string `json:"provider" validate:"required,max=32"`
	ProviderID string `json:"providerId" validate:"required,max=255"`
}

// SyncResult is the backend's answer to a successful account sync.
type SyncResult struct {
	UserID       string `json:"id"`
	Phone        string `json:"phone,omitempty"`
	Location     string `json:"location,omitempty"`
	BackendToken string `json:"-"`
}

// Claims are the signed contents of a session token.
type Claims struct {
	UserID       string `json:"sub"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Avatar       string `json:"avatar,omitempty"`
	Provider     string `json:"provider"`
	ProviderID   string `json:"provider_id"`
	Phone        string `json:"phone,omitempty"`
	Location     string `json:"location,omitempty"`
	BackendToken string `json:"backend_token,omitempty"`
	Synced       bool   `json:"synced"`
	TokenID      string `json:"jti"`
	Issuer       string `json:"iss"`
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
}

// FallbackUserID identifies a shopper the backend has not enriched.
func (p Profile) FallbackUserID() string {
	return p.Provider + ":" + p.ProviderID
}

// Session is a signed token plus the claims it carries.
type Session struct {
	Token     string    `json:"token"`
	Claims    Claims    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// View is the client-safe projection of a session. The backend token stays server-side.
type View struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar,omitempty"`
	Provider  string    `json:"provider"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Synced    bool      `json:"synced"`
	ExpiresAt time.Time `json:"expires_at"`
}

// View projects the claims for the client.
func (c Claims) View() View {
	return View{
		UserID:    c.UserID,
		Name:      c.Name,
		Email:     c.Email,
		Avatar:    c.Avatar,
		Provider:  c.Provider,
		Phone:     c.Phone,
		Location:  c.Location,
		Synced:    c.Synced,
		ExpiresAt: time.Unix(c.ExpiresAt, 0).UTC(),
	}
}
