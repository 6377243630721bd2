package gitmsg

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	headerLineRe = regexp.MustCompile(`^--- GitMsg: (.+) ---\s*$`)
	refLineRe    = regexp.MustCompile(`^--- GitMsg-Ref: (.+) ---\s*$`)
	fieldRe      = regexp.MustCompile(`([A-Za-z0-9_-]+)="((?:[^"\\]|\\.)*)"`)
)

// parseFieldString extracts key="value" pairs from a header/reference
// body string, preserving order, unescaping \" and \\.
func parseFieldString(s string) *Fields {
	f := NewFields()
	for _, m := range fieldRe.FindAllStringSubmatch(s, -1) {
		key, val := m[1], unescape(m[2])
		f.Set(key, val)
	}
	return f
}

func unescape(s string) string {
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `\\`, `\`)
	return s
}

// Parse parses a commit message into its body content, the GitMsg
// header (if any), and any embedded references. It returns nil when
// no header line is present. Malformed references are skipped with a
// warning rather than aborting the parse.
func Parse(message string, log logrus.FieldLogger) *ParseResult {
	lines := strings.Split(message, "\n")

	headerIdx := -1
	for i, l := range lines {
		if headerLineRe.MatchString(l) {
			headerIdx = i
		}
	}
	if headerIdx == -1 {
		return nil
	}

	headerMatch := headerLineRe.FindStringSubmatch(lines[headerIdx])
	header := parseHeader(headerMatch[1])
	if header == nil {
		if log != nil {
			log.Warn("gitmsg: malformed header line, skipping message")
		}
		return nil
	}

	bodyLines := lines[:headerIdx]
	refs, cleanLines := extractReferences(bodyLines, log)

	content := strings.TrimRight(strings.Join(bodyLines, "\n"), "\n")
	cleanContent := strings.TrimRight(strings.Join(cleanLines, "\n"), "\n")

	return &ParseResult{
		Content:      content,
		CleanContent: cleanContent,
		Header:       header,
		References:   refs,
	}
}

// parseHeader parses the inside of a "--- GitMsg: ... ---" line. The
// first field must be "ext"; the last two fields must be "v" and
// "ext-v". Returns nil when these invariants are not met.
func parseHeader(body string) *Header {
	f := parseFieldString(body)
	keys := f.Keys()
	if len(keys) < 3 {
		return nil
	}
	if keys[0] != "ext" {
		return nil
	}
	v, vOK := f.Get("v")
	extV, extVOK := f.Get("ext-v")
	ext, _ := f.Get("ext")
	if !vOK || !extVOK {
		return nil
	}
	if keys[len(keys)-2] != "v" || keys[len(keys)-1] != "ext-v" {
		return nil
	}

	mid := NewFields()
	for _, k := range keys {
		if k == "ext" || k == "v" || k == "ext-v" {
			continue
		}
		val, _ := f.Get(k)
		mid.Set(k, val)
	}

	return &Header{Ext: ext, Fields: mid, Version: v, ExtVersion: extV}
}

// extractReferences scans body lines for "--- GitMsg-Ref: ... ---"
// sections and their trailing "> "-prefixed quoted lines, returning
// the parsed references and the body lines with those sections
// removed (for cleanContent).
func extractReferences(bodyLines []string, log logrus.FieldLogger) ([]*Reference, []string) {
	var refs []*Reference
	var clean []string

	i := 0
	for i < len(bodyLines) {
		line := bodyLines[i]
		m := refLineRe.FindStringSubmatch(line)
		if m == nil {
			clean = append(clean, line)
			i++
			continue
		}

		ref := parseReference(m[1])
		i++

		var quoted []string
		for i < len(bodyLines) {
			l := bodyLines[i]
			if refLineRe.MatchString(l) {
				break
			}
			if !strings.HasPrefix(l, "> ") {
				break
			}
			quoted = append(quoted, strings.TrimPrefix(l, "> "))
			i++
		}

		if ref == nil {
			if log != nil {
				log.Warn("gitmsg: malformed reference section, skipping")
			}
			continue
		}
		ref.Quoted = quoted
		refs = append(refs, ref)
	}

	return refs, clean
}

// parseReference parses the inside of a "--- GitMsg-Ref: ... ---"
// line. Required fields: ext, author, email, time, ref, v, ext-v.
// Returns nil when any is missing.
func parseReference(body string) *Reference {
	f := parseFieldString(body)

	required := []string{"ext", "author", "email", "time", "ref", "v", "ext-v"}
	vals := map[string]string{}
	for _, k := range required {
		v, ok := f.Get(k)
		if !ok {
			return nil
		}
		vals[k] = v
	}

	mid := NewFields()
	for _, k := range f.Keys() {
		switch k {
		case "ext", "author", "email", "time", "ref", "v", "ext-v":
			continue
		}
		v, _ := f.Get(k)
		mid.Set(k, v)
	}

	return &Reference{
		Ext:        vals["ext"],
		Author:     vals["author"],
		Email:      vals["email"],
		Time:       vals["time"],
		Fields:     mid,
		Ref:        vals["ref"],
		Version:    vals["v"],
		ExtVersion: vals["ext-v"],
	}
}
