package config

import "strings"

// SiteConfig holds per-host request settings.
// The crawl wanders across hosts, so these are looked up for every request
// by the host of the URL being fetched.
type SiteConfig struct {
	// Cookie is sent as the Cookie header.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// IsZero reports whether the config carries no settings.
func (sc SiteConfig) IsZero() bool {
	return sc.Cookie == "" && len(sc.Headers) == 0 && sc.UserAgent == ""
}

// File represents the structure of the .hopcrawl configuration file.
type File struct {
	// Defaults apply to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a host (e.g. "example.com" or "example.com:8080") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the merged configuration for host.
// Host matching is case-insensitive; an entry with a port takes precedence
// over the bare hostname.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	if cf == nil {
		return SiteConfig{}
	}

	result := SiteConfig{
		Cookie:    cf.Defaults.Cookie,
		UserAgent: cf.Defaults.UserAgent,
	}
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		for k, v := range site.Headers {
			result.Headers[k] = v
		}
	}

	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(host)
	for key, sc := range cf.Sites {
		if strings.ToLower(key) == host {
			return sc, true
		}
	}
	hostname, _, found := strings.Cut(host, ":")
	if !found {
		return SiteConfig{}, false
	}
	for key, sc := range cf.Sites {
		if strings.ToLower(key) == hostname {
			return sc, true
		}
	}
	return SiteConfig{}, false
}
