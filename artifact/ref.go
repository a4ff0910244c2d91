// Package artifact models references to versioned artifacts exchanged between stages.
package artifact

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Latest is the qualifier resolving to the most recent artifact version.
const Latest = "latest"

// QualifierKind classifies how a qualifier is resolved by the artifact store.
type QualifierKind int

const (
	KindLatest QualifierKind = iota
	KindVersion
	KindAlias
)

func (k QualifierKind) String() string {
	switch k {
	case KindLatest:
		return "latest"
	case KindVersion:
		return "version"
	case KindAlias:
		return "alias"
	default:
		return fmt.Sprintf("QualifierKind(%d)", int(k))
	}
}

var (
	aliasPattern = regexp.MustCompile(`^[a-z][a-z0-9_.-]*$`)
	namePattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// Ref names a logical artifact plus the qualifier used to resolve it.
// The driver only builds and forwards refs; it never dereferences them.
type Ref struct {
	Name      string
	Qualifier string
	kind      QualifierKind
	version   *semver.Version
}

// New validates name and qualifier and returns a Ref.
func New(name, qualifier string) (Ref, error) {
	if !namePattern.MatchString(name) {
		return Ref{}, fmt.Errorf("artifact name %q must match %s", name, namePattern)
	}

	kind, version, err := classify(qualifier)
	if err != nil {
		return Ref{}, fmt.Errorf("artifact %s: %w", name, err)
	}

	return Ref{Name: name, Qualifier: qualifier, kind: kind, version: version}, nil
}

// MustNew is like New but panics on invalid input. Intended for static tables.
func MustNew(name, qualifier string) Ref {
	r, err := New(name, qualifier)
	if err != nil {
		panic(err)
	}
	return r
}

// Parse splits a "name:qualifier" string on its last colon.
func Parse(s string) (Ref, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return Ref{}, fmt.Errorf("artifact reference %q must have the form name:qualifier", s)
	}
	return New(s[:i], s[i+1:])
}

// Kind reports how the qualifier is resolved.
func (r Ref) Kind() QualifierKind { return r.kind }

// Version returns the parsed version for KindVersion refs and nil otherwise.
func (r Ref) Version() *semver.Version { return r.version }

// String formats the ref as "name:qualifier".
func (r Ref) String() string {
	return r.Name + ":" + r.Qualifier
}

func classify(q string) (QualifierKind, *semver.Version, error) {
	if q == "" {
		return 0, nil, fmt.Errorf("qualifier is required")
	}
	if q == Latest {
		return KindLatest, nil, nil
	}
	if v, err := semver.NewVersion(q); err == nil {
		return KindVersion, v, nil
	}
	if aliasPattern.MatchString(q) {
		return KindAlias, nil, nil
	}
	return 0, nil, fmt.Errorf("qualifier %q is not %q, a version tag or an alias", q, Latest)
}
