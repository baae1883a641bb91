package echo

import (
	"fmt"
	"strings"
)

// HeaderAPIToken carries the caller's API token.
const HeaderAPIToken = "X-Api-Token"

// TokenAuthorities maps API tokens to the authorities they grant.
type TokenAuthorities map[string][]string

// ParseTokenAuthorities reads "token:AUTH|AUTH,token2:AUTH".
func ParseTokenAuthorities(raw string) (TokenAuthorities, error) {
	out := make(TokenAuthorities)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		token, list, ok := strings.Cut(entry, ":")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return nil, fmt.Errorf("invalid token entry %q", entry)
		}
		var authorities []string
		for _, a := range strings.Split(list, "|") {
			if a = strings.TrimSpace(a); a != "" {
				authorities = append(authorities, a)
			}
		}
		out[token] = authorities
	}
	return out, nil
}

func (t TokenAuthorities) Lookup(token string) ([]string, bool) {
	if token == "" {
		return nil, false
	}
	authorities, ok := t[token]
	return authorities, ok
}
