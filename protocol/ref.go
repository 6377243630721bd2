package protocol

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// RefType identifies the shape of a GitMsg reference.
type RefType string

const (
	RefCommit  RefType = "commit"
	RefBranch  RefType = "branch"
	RefList    RefType = "list"
	RefUnknown RefType = "unknown"
)

// DefaultBranch is used by ParseRepositoryId when a reference carries
// no explicit branch.
const DefaultBranch = "main"

var (
	branchNameRe = regexp.MustCompile(`^[A-Za-z0-9/_-]+$`)
	listIDRe     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,40}$`)

	refRe = regexp.MustCompile(`^([^#]*)#(commit|branch|list):(.+)$`)
)

// ParsedRef is the structural decomposition of a GitMsg reference
// string.
type ParsedRef struct {
	Type  RefType
	Value string
	Repo  string // normalized repository URL; empty when relative
}

// IsAbsolute reports whether the reference carries a repository URL.
func (p ParsedRef) IsAbsolute() bool { return p.Repo != "" }

// validateField validates a reference's value against the rule for
// its type, composing with ozzo-validation.
func validateField(t RefType, value string) error {
	switch t {
	case RefCommit:
		return validation.Validate(value, validation.Required, validation.Match(hash12Re))
	case RefBranch:
		return validation.Validate(value, validation.Required, validation.Match(branchNameRe))
	case RefList:
		return validation.Validate(value, validation.Required, validation.Match(listIDRe))
	}
	return fmt.Errorf("unknown ref type %q", t)
}

// ParseRef parses a GitMsg reference string of shape
// "[repo]#commit|branch|list:value". A string that matches none of
// the three shapes yields {Type: RefUnknown}.
func ParseRef(s string) ParsedRef {
	s = strings.TrimSpace(s)
	m := refRe.FindStringSubmatch(s)
	if m == nil {
		return ParsedRef{Type: RefUnknown}
	}

	repo, typ, value := m[1], RefType(m[2]), m[3]

	if repo != "" {
		if !ValidateURL(repo) {
			return ParsedRef{Type: RefUnknown}
		}
		repo = NormalizeURL(repo)
	}

	switch typ {
	case RefCommit:
		norm, err := NormalizeHash(value)
		if err != nil {
			return ParsedRef{Type: RefUnknown}
		}
		value = norm
	case RefBranch, RefList:
		if err := validateField(typ, value); err != nil {
			return ParsedRef{Type: RefUnknown}
		}
	default:
		return ParsedRef{Type: RefUnknown}
	}

	return ParsedRef{Type: typ, Value: value, Repo: repo}
}

// CreateRef builds a canonical GitMsg reference string from its parts.
// Commit values are lower-cased and truncated to HashLen; repo, when
// given, must validate as a repository URL to be honored, otherwise
// it is dropped and the ref is rendered relative.
func CreateRef(t RefType, value string, repo ...string) string {
	var r string
	if len(repo) > 0 {
		r = repo[0]
	}

	switch t {
	case RefCommit:
		if norm, err := NormalizeHash(value); err == nil {
			value = norm
		}
	}

	if r != "" && ValidateURL(r) {
		r = NormalizeURL(r)
		return fmt.Sprintf("%s#%s:%s", r, t, value)
	}
	return fmt.Sprintf("#%s:%s", t, value)
}

// ValidateRef reports whether s is a well-formed reference. When t is
// non-empty, the check is scoped to that exact type.
func ValidateRef(s string, t ...RefType) bool {
	p := ParseRef(s)
	if p.Type == RefUnknown {
		return false
	}
	if len(t) > 0 && p.Type != t[0] {
		return false
	}
	return true
}

// NormalizeRef rewrites a commit reference into its canonical 12-hex
// form; branch and list references pass through unchanged (beyond
// having already been validated on parse).
func NormalizeRef(s string) string {
	p := ParseRef(s)
	if p.Type == RefUnknown {
		return s
	}
	if p.Repo != "" {
		return fmt.Sprintf("%s#%s:%s", p.Repo, p.Type, p.Value)
	}
	return fmt.Sprintf("#%s:%s", p.Type, p.Value)
}

// IsMyRepository reports whether s is a relative GitMsg reference
// (anchored to the current workspace), i.e. begins with "#".
func IsMyRepository(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "#")
}

// RepositoryID is the decomposition of a "url#branch:name" repository
// identity.
type RepositoryID struct {
	Repo   string
	Branch string
}

var repoIDRe = regexp.MustCompile(`^(.*)#branch:(.+)$`)

// ParseRepositoryID parses a "url#branch:name" or bare-url repository
// identity. Branch defaults to DefaultBranch when absent.
func ParseRepositoryID(s string) RepositoryID {
	s = strings.TrimSpace(s)
	if m := repoIDRe.FindStringSubmatch(s); m != nil {
		return RepositoryID{Repo: NormalizeURL(m[1]), Branch: m[2]}
	}
	return RepositoryID{Repo: NormalizeURL(s), Branch: DefaultBranch}
}

// String renders the canonical "url#branch:name" repository identity.
func (r RepositoryID) String() string {
	return fmt.Sprintf("%s#branch:%s", r.Repo, r.Branch)
}

// NormalizeHashInRefWithContext rewrites a relative commit reference
// into an absolute one against ctxRepoURL (stripping any ".git"
// suffix from the context URL). Non-relative-commit references, or
// calls with an empty context, pass through NormalizeRef unchanged.
func NormalizeHashInRefWithContext(ref string, ctxRepoURL string) string {
	p := ParseRef(ref)
	if p.Type != RefCommit || p.IsAbsolute() || ctxRepoURL == "" {
		return NormalizeRef(ref)
	}
	repo := strings.TrimSuffix(ctxRepoURL, ".git")
	return CreateRef(RefCommit, p.Value, repo)
}
