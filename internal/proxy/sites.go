package proxy

import (
	"net/http"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SiteConfig carries per-site tweaks for the upstream request. Some targets
// only serve sensible markup to particular User-Agents or Referers; a YAML
// file per host supplies those headers.
type SiteConfig struct {
	Headers map[string]string `yaml:"headers,omitempty"`
}

type siteConfigStore struct {
	dir   string
	mu    sync.RWMutex
	cache map[string]*SiteConfig
}

func newSiteConfigStore(dir string) *siteConfigStore {
	return &siteConfigStore{
		dir:   dir,
		cache: make(map[string]*SiteConfig),
	}
}

// Find returns the config for the target's host, trying parent domains so
// "static.example.com" picks up "example.com.yaml". Lookups are memoized;
// the cache holds configuration, never request state.
func (s *siteConfigStore) Find(target string) *SiteConfig {
	u, err := neturl.Parse(target)
	if err != nil || u.Host == "" {
		return nil
	}
	host := u.Host
	s.mu.RLock()
	if cfg, ok := s.cache[host]; ok {
		s.mu.RUnlock()
		return cfg
	}
	s.mu.RUnlock()

	var found *SiteConfig
	labels := strings.Split(host, ".")
	for i := 0; i < len(labels); i++ {
		if cfg := s.load(strings.Join(labels[i:], ".")); cfg != nil {
			found = cfg
			break
		}
	}
	s.mu.Lock()
	s.cache[host] = found
	s.mu.Unlock()
	return found
}

func (s *siteConfigStore) load(host string) *SiteConfig {
	if s.dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, host+".yaml"))
	if err != nil {
		return nil
	}
	var cfg SiteConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil
	}
	return &cfg
}

// apply overlays the site's headers on top of the forwarded set.
func (cfg *SiteConfig) apply(hdr http.Header) {
	if cfg == nil {
		return
	}
	for name, v := range cfg.Headers {
		hdr.Set(name, v)
	}
}
