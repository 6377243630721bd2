package protocol

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/asaskevich/govalidator"
)

// NoOriginSentinel is the literal token a Git collaborator returns for
// getOriginUrl when no remote is configured. Implementers must treat
// it as "no origin", never as a real URL (spec §9 Open Questions).
const NoOriginSentinel = "myrepository"

var sshRe = regexp.MustCompile(`^([\w.-]+)@([\w.-]+):(.+)$`)

// NormalizeURL rewrites a repository URL into its canonical form:
// https scheme, lowercase host, case-preserving path, no ".git"
// suffix, no trailing slash. SSH shorthand (git@host:path)
// canonicalizes to https://host/path.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == NoOriginSentinel {
		return raw
	}

	if m := sshRe.FindStringSubmatch(raw); m != nil {
		raw = "https://" + m[2] + "/" + m[3]
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}

	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Path = strings.TrimSuffix(u.Path, ".git")
	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}

// ValidateURL reports whether raw is a well-formed repository URL: an
// HTTPS URL with at least two path segments, or an SSH shorthand
// (git@host:a/b).
func ValidateURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if sshRe.MatchString(raw) {
		m := sshRe.FindStringSubmatch(raw)
		segs := strings.Split(strings.Trim(m[3], "/"), "/")
		return len(segs) >= 2 && segs[0] != "" && segs[1] != ""
	}
	if !govalidator.IsURL(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "https" {
		return false
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return len(segs) >= 2 && segs[0] != "" && segs[1] != ""
}

// ToGitURL appends a ".git" suffix idempotently.
func ToGitURL(raw string) string {
	if strings.HasSuffix(raw, ".git") {
		return raw
	}
	return raw + ".git"
}
