package proxy

import (
	"errors"
	"fmt"
	neturl "net/url"
	"strings"
)

// normalizeTarget prepares a raw `url` query value for fetching. Host-only
// targets get an http:// prefix.
func normalizeTarget(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		s = "http://" + s
	}
	return s
}

// validateTarget rejects targets whose host cannot be parsed. This is the
// only input error the proxy reports; everything past here degrades instead.
func validateTarget(target string) error {
	u, err := neturl.Parse(target)
	if err != nil {
		return fmt.Errorf("parse %q: %w", target, err)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
