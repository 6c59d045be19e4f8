package fspath

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
)

// CaseSensitivity returns the policy used to compare p with other paths.
//
// Local paths follow the host OS. Device paths are always compared
// case-sensitively: asking the device would cost a round trip on a hot path,
// so this is an approximation callers may rely on.
func (p FilePath) CaseSensitivity() CaseSensitivity {
	if p.NeedsDevice() {
		return CaseSensitive
	}
	return HostOS().FileNameCaseSensitivity()
}

// foldCase returns the canonical case-folded form of s. A Caser keeps state,
// so a new one is created per call.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

func equalStrings(a, b string, cs CaseSensitivity) bool {
	if cs == CaseSensitive {
		return a == b
	}
	return a == b || foldCase(a) == foldCase(b)
}

func compareStrings(a, b string, cs CaseSensitivity) int {
	if cs == CaseInsensitive {
		a, b = foldCase(a), foldCase(b)
	}
	return strings.Compare(a, b)
}

// Equal reports whether p and other denote the same path. Root and path
// are compared under p's case policy, host and scheme exactly.
func (p FilePath) Equal(other FilePath) bool {
	cs := p.CaseSensitivity()
	return equalStrings(p.root, other.root, cs) &&
		equalStrings(p.path, other.path, cs) &&
		p.host == other.host &&
		p.scheme == other.scheme
}

// Compare orders paths by root, path (under p's case policy), host, then scheme.
func (p FilePath) Compare(other FilePath) int {
	cs := p.CaseSensitivity()
	if c := compareStrings(p.root, other.root, cs); c != 0 {
		return c
	}
	if c := compareStrings(p.path, other.path, cs); c != 0 {
		return c
	}
	if c := strings.Compare(p.host, other.host); c != 0 {
		return c
	}
	return strings.Compare(p.scheme, other.scheme)
}

// Less reports whether p sorts before other.
func (p FilePath) Less(other FilePath) bool {
	return p.Compare(other) < 0
}

// Hash returns a hash consistent with Equal. Only the path part is hashed,
// folded first when the policy is case-insensitive; paths that differ only
// in scheme, host or root collide.
func (p FilePath) Hash() uint64 {
	if p.CaseSensitivity() == CaseInsensitive {
		return xxhash.Sum64String(foldCase(p.path))
	}
	return xxhash.Sum64String(p.path)
}
