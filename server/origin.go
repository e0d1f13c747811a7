package server

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginValidator decides which browser origins may use the API and the frame stream.
type OriginValidator struct {
	allowedHosts map[string]bool // lowercase hostnames
}

// NewOriginValidator accepts origins as full URLs ("https://orrery.example") or bare
// hostnames. An empty list allows every origin.
func NewOriginValidator(origins []string) *OriginValidator {
	allowed := make(map[string]bool)
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if strings.Contains(o, "://") {
			if u, err := url.Parse(o); err == nil {
				o = u.Hostname()
			}
		}
		allowed[strings.ToLower(o)] = true
	}
	return &OriginValidator{allowedHosts: allowed}
}

// IsAllowedHost checks the host, or one of its parent domains, against the list.
func (v *OriginValidator) IsAllowedHost(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	if host == "" {
		return false
	}
	lowerHost := strings.ToLower(host)
	if v.allowedHosts[lowerHost] {
		return true
	}
	for allowed := range v.allowedHosts {
		if strings.HasSuffix(lowerHost, "."+allowed) {
			return true
		}
	}
	return false
}

// IsAllowedOrigin validates an Origin header value.
func (v *OriginValidator) IsAllowedOrigin(origin string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return v.IsAllowedHost(u.Hostname())
}

// CheckOrigin is the websocket upgrader hook. Requests without an Origin header come
// from non-browser clients and are let through.
func (v *OriginValidator) CheckOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return v.IsAllowedOrigin(origin)
}
