package fspath

import "net/url"

// VariantKind tags the content of a Variant.
type VariantKind int

const (
	// VariantString holds the internal string form.
	VariantString VariantKind = iota
	// VariantURL holds a URL.
	VariantURL
)

// Variant is the persisted form of a FilePath used by settings and other
// string-based containers. Exactly one of Text or URL is meaningful,
// selected by Kind.
type Variant struct {
	Kind VariantKind
	Text string
	URL  *url.URL
}

// ToVariant returns the string-kind variant of p.
func (p FilePath) ToVariant() Variant {
	return Variant{Kind: VariantString, Text: p.String()}
}

// ToURLVariant returns the URL-kind variant of p, for paths that came from URLs.
func (p FilePath) ToURLVariant() Variant {
	return Variant{Kind: VariantURL, URL: p.ToURL()}
}

// FromVariant converts a variant back to a FilePath.
func FromVariant(v Variant) FilePath {
	if v.Kind == VariantURL {
		return FromURL(v.URL)
	}
	return FromString(v.Text)
}
