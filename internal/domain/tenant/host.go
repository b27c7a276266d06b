package tenant

import (
	"net"
	"net/url"
	"strings"
)

// NormalizeHost strips any port and brackets from a Host header value and lower-cases it.
// A trailing root dot is dropped as well.
func NormalizeHost(raw string) string {
	host := strings.TrimSpace(raw)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	} else if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}

// firstLabel returns the first dot-separated label of host, and false when
// host has fewer than two labels.
func firstLabel(host string) (string, bool) {
	label, rest, found := strings.Cut(host, ".")
	if !found || rest == "" {
		return "", false
	}
	return label, true
}

// StripQueryKey removes every pair whose decoded key equals key from a raw
// query string. The remaining pairs keep their order and original encoding.
func StripQueryKey(raw, key string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "&")
	kept := parts[:0]
	for _, part := range parts {
		if part == "" {
			continue
		}
		if k, _ := splitPair(part); k == key {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}

// splitPair splits one raw query pair. The key is decoded when it decodes
// and kept raw otherwise; the value is returned undecoded.
func splitPair(pair string) (key, rawValue string) {
	key, rawValue, _ = strings.Cut(pair, "=")
	if dk, err := url.QueryUnescape(key); err == nil {
		key = dk
	}
	return key, rawValue
}
