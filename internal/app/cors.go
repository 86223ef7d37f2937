package app

import (
	"net/url"
	"strings"
)

// originAllowList holds the configured browser origins, split by pattern
// shape: "www.school.edu" exact, "*.school.edu" any subdomain, "localhost:*"
// any port.
type originAllowList struct {
	exact     map[string]struct{}
	domains   []string
	portHosts []string
}

func newOriginAllowList(patterns []string) *originAllowList {
	l := &originAllowList{exact: make(map[string]struct{}, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
		case strings.HasPrefix(p, "*."):
			l.domains = append(l.domains, p[1:])
		case strings.HasSuffix(p, ":*"):
			l.portHosts = append(l.portHosts, p[:len(p)-1])
		default:
			l.exact[p] = struct{}{}
		}
	}
	return l
}

// allows reports whether the Origin header value matches any pattern.
func (l *originAllowList) allows(origin string) bool {
	host := strings.ToLower(originHost(origin))
	if _, ok := l.exact[host]; ok {
		return true
	}
	for _, d := range l.domains {
		if strings.HasSuffix(host, d) {
			return true
		}
	}
	for _, h := range l.portHosts {
		if strings.HasPrefix(host, h) {
			return true
		}
	}
	return false
}

// originHost strips scheme and path, leaving host[:port]. Unparseable
// input is compared as-is.
func originHost(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}
