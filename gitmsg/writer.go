package gitmsg

import (
	"fmt"
	"strings"
)

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// WriteHeader renders a Header back into its "--- GitMsg: ... ---"
// line, with ext first and v/ext-v last, exactly mirroring the order
// Parse expects.
func WriteHeader(h *Header) string {
	var b strings.Builder
	b.WriteString("--- GitMsg: ")
	fmt.Fprintf(&b, `ext="%s"; `, escape(h.Ext))
	for _, k := range h.Fields.Keys() {
		v, _ := h.Fields.Get(k)
		fmt.Fprintf(&b, `%s="%s"; `, k, escape(v))
	}
	fmt.Fprintf(&b, `v="%s"; ext-v="%s" ---`, escape(h.Version), escape(h.ExtVersion))
	return b.String()
}

// WriteReference renders a Reference back into its
// "--- GitMsg-Ref: ... ---" line plus its quoted metadata lines.
func WriteReference(r *Reference) string {
	var b strings.Builder
	b.WriteString("--- GitMsg-Ref: ")
	fmt.Fprintf(&b, `ext="%s"; author="%s"; email="%s"; time="%s"; `,
		escape(r.Ext), escape(r.Author), escape(r.Email), escape(r.Time))
	for _, k := range r.Fields.Keys() {
		v, _ := r.Fields.Get(k)
		fmt.Fprintf(&b, `%s="%s"; `, k, escape(v))
	}
	fmt.Fprintf(&b, `ref="%s"; v="%s"; ext-v="%s" ---`, escape(r.Ref), escape(r.Version), escape(r.ExtVersion))

	for _, q := range r.Quoted {
		b.WriteString("\n> ")
		b.WriteString(q)
	}
	return b.String()
}

// Write renders a ParseResult back into a complete commit message:
// Content (which already carries any embedded reference sections
// verbatim, as Parse leaves them in place) followed by the header
// line.
func Write(p *ParseResult) string {
	var b strings.Builder
	b.WriteString(p.Content)
	if p.Header != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(WriteHeader(p.Header))
	}
	return b.String()
}
