// Package tenant models dealer storefront tenancy: the per-request descriptor,
// the resolution produced for it, and the dealer identity downstream pages consume.
package tenant

import (
	"net/http"
	"net/url"
	"strings"
)

// Request is the immutable descriptor a resolution is computed from.
type Request struct {
	Hostname    string // raw Host header value, may carry a port
	Path        string
	EscapedPath string // optional; the path as encoded on the wire
	RawQuery    string
}

// FromHTTP builds a Request from an inbound HTTP request.
func FromHTTP(r *http.Request) Request {
	return Request{
		Hostname:    r.Host,
		Path:        r.URL.Path,
		EscapedPath: r.URL.EscapedPath(),
		RawQuery:    r.URL.RawQuery,
	}
}

// QueryValue finds the first pair of RawQuery whose key is key. Pairs are
// matched by their decoded key, malformed or not, so present is true whenever
// the key is on the wire. ok is false when the value does not decode.
func (r Request) QueryValue(key string) (value string, present, ok bool) {
	for _, pair := range strings.Split(r.RawQuery, "&") {
		if pair == "" {
			continue
		}
		k, raw := splitPair(pair)
		if k != key {
			continue
		}
		v, err := url.QueryUnescape(raw)
		if err != nil {
			return "", true, false
		}
		return v, true, true
	}
	return "", false, false
}

// Resolution is the routing decision for one request.
// DealerSlug is non-empty if and only if IsMainDomain is false.
type Resolution struct {
	IsMainDomain  bool   `json:"is_main_domain"`
	DealerSlug    string `json:"dealer_slug,omitempty"`
	RewrittenPath string `json:"rewritten_path,omitempty"`
	// RewrittenRawPath is the encoded form of RewrittenPath, set only when
	// the inbound path carried escapes that decoding would lose.
	RewrittenRawPath string `json:"rewritten_raw_path,omitempty"`
	RewrittenQuery   string `json:"rewritten_query,omitempty"`
	Bypassed         bool   `json:"bypassed,omitempty"`
	Rule             string `json:"rule"`
}

// Main returns the main-domain resolution.
func Main() Resolution {
	return Resolution{IsMainDomain: true}
}

// ForDealer returns a dealer resolution for slug.
func ForDealer(slug string) Resolution {
	return Resolution{DealerSlug: slug}
}

// HasDealer reports whether the resolution selects a dealer storefront.
func (r Resolution) HasDealer() bool {
	return !r.IsMainDomain && r.DealerSlug != ""
}

// Target returns the rewritten path with its query string, or "" when no rewrite applies.
func (r Resolution) Target() string {
	if r.RewrittenPath == "" {
		return ""
	}
	path := r.RewrittenPath
	if r.RewrittenRawPath != "" {
		path = r.RewrittenRawPath
	}
	if r.RewrittenQuery == "" {
		return path
	}
	return path + "?" + r.RewrittenQuery
}

// AllowList is the fixed set of dealer slugs accepted from the query parameter.
type AllowList map[string]struct{}

// NewAllowList builds an AllowList from slugs. Empty entries are ignored.
func NewAllowList(slugs []string) AllowList {
	a := make(AllowList, len(slugs))
	for _, s := range slugs {
		if s != "" {
			a[s] = struct{}{}
		}
	}
	return a
}

// Contains reports whether slug is allowed.
func (a AllowList) Contains(slug string) bool {
	_, ok := a[slug]
	return ok
}

// Dealer is the storefront identity and theme served by the backend for a slug.
type Dealer struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	City     string `json:"city,omitempty"`
	Phone    string `json:"phone,omitempty"`
	WhatsApp string `json:"whatsapp,omitempty"`
	Email    string `json:"email,omitempty"`
	Address  string `json:"address,omitempty"`
	Theme    Theme  `json:"theme"`
}

// Theme holds the dealer's brand colors and assets.
type Theme struct {
	PrimaryColor   string `json:"primaryColor,omitempty"`
	SecondaryColor string `json:"secondaryColor,omitempty"`
	AccentColor    string `json:"accentColor,omitempty"`
	LogoURL        string `json:"logoUrl,omitempty"`
	BannerURL      string `json:"bannerUrl,omitempty"`
}
