// Package gitmsg implements the GitMsg header/reference line-oriented
// commit message framing: parsing a commit message into a header
// record plus embedded references, and writing the inverse.
package gitmsg

import "github.com/stretchr/objx"

// Fields is an ordered key→value field map. Insertion order is
// preserved (mirroring the teacher's use of objx.Map for dynamically
// keyed metadata) because the Writer must reproduce the exact field
// order it was parsed in.
type Fields struct {
	order  []string
	values objx.Map
}

// NewFields returns an empty ordered field map.
func NewFields() *Fields {
	return &Fields{values: objx.Map{}}
}

// Set inserts or updates a field, appending to the order on first
// insertion.
func (f *Fields) Set(key, value string) {
	if f.values == nil {
		f.values = objx.Map{}
	}
	if _, ok := f.values[key]; !ok {
		f.order = append(f.order, key)
	}
	f.values[key] = value
}

// Get returns a field's value and whether it was present.
func (f *Fields) Get(key string) (string, bool) {
	if f == nil || f.values == nil {
		return "", false
	}
	v, ok := f.values[key]
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Keys returns field keys in insertion order.
func (f *Fields) Keys() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.order...)
}

// Header is a parsed "--- GitMsg: ... ---" header line.
type Header struct {
	Ext        string
	Fields     *Fields
	Version    string
	ExtVersion string
}

// Reference is a parsed "--- GitMsg-Ref: ... ---" embedded reference
// section, including any quoted metadata lines that follow it.
type Reference struct {
	Ext        string
	Author     string
	Email      string
	Time       string
	Fields     *Fields
	Ref        string
	Version    string
	ExtVersion string
	Quoted     []string // quoted metadata lines, "> " prefix stripped
}

// QuotedBody joins the reference's quoted metadata lines back into a
// single block, newline-separated.
func (r *Reference) QuotedBody() string {
	out := ""
	for i, l := range r.Quoted {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

// ParseResult is the outcome of parsing a commit message.
type ParseResult struct {
	// Content is the commit message body with the GitMsg header line
	// (and everything from it onward) stripped.
	Content string

	// CleanContent is Content with embedded reference sections also
	// removed, for display/quoting purposes.
	CleanContent string

	Header     *Header
	References []*Reference
}
