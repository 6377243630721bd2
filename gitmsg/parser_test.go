package gitmsg

import "testing"

func TestParseNoHeader(t *testing.T) {
	if Parse("just a plain commit message", nil) != nil {
		t.Error("expected nil for message without header")
	}
}

func TestParseSimpleHeader(t *testing.T) {
	msg := `Hello world

--- GitMsg: ext="social"; type="post"; v="1"; ext-v="1" ---`

	r := Parse(msg, nil)
	if r == nil {
		t.Fatal("expected a parse result")
	}
	if r.Header.Ext != "social" {
		t.Errorf("ext = %q", r.Header.Ext)
	}
	if v, _ := r.Header.Fields.Get("type"); v != "post" {
		t.Errorf("type = %q", v)
	}
	if r.Header.Version != "1" || r.Header.ExtVersion != "1" {
		t.Errorf("versions = %q/%q", r.Header.Version, r.Header.ExtVersion)
	}
	if len(r.References) != 0 {
		t.Errorf("expected no references, got %d", len(r.References))
	}
}

func TestParseWithReference(t *testing.T) {
	msg := `Great point!

--- GitMsg-Ref: ext="social"; author="Ada"; email="ada@example.com"; time="2024-01-01T00:00:00Z"; type="comment"; ref="#commit:abc123def456"; v="1"; ext-v="1" ---
> quoted line one
> quoted line two

--- GitMsg: ext="social"; type="comment"; original="#commit:abc123def456"; v="1"; ext-v="1" ---`

	r := Parse(msg, nil)
	if r == nil {
		t.Fatal("expected a parse result")
	}
	if len(r.References) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(r.References))
	}
	ref := r.References[0]
	if ref.Author != "Ada" || ref.Email != "ada@example.com" {
		t.Errorf("author/email = %q/%q", ref.Author, ref.Email)
	}
	if ref.Ref != "#commit:abc123def456" {
		t.Errorf("ref = %q", ref.Ref)
	}
	if len(ref.Quoted) != 2 {
		t.Fatalf("expected 2 quoted lines, got %d: %v", len(ref.Quoted), ref.Quoted)
	}
	if ref.Quoted[0] != "quoted line one" {
		t.Errorf("quoted[0] = %q", ref.Quoted[0])
	}

	if orig, _ := r.Header.Fields.Get("original"); orig != "#commit:abc123def456" {
		t.Errorf("original = %q", orig)
	}

	// cleanContent has the reference block removed.
	if r.CleanContent != "Great point!" {
		t.Errorf("cleanContent = %q", r.CleanContent)
	}
}

func TestParseMalformedReferenceIsSkipped(t *testing.T) {
	msg := `Body

--- GitMsg-Ref: ext="social"; author="Ada" ---
> quoted

--- GitMsg: ext="social"; type="post"; v="1"; ext-v="1" ---`

	r := Parse(msg, nil)
	if r == nil {
		t.Fatal("expected a parse result despite malformed reference")
	}
	if len(r.References) != 0 {
		t.Errorf("expected malformed reference to be skipped, got %d", len(r.References))
	}
}

func TestWriteRoundTrip(t *testing.T) {
	msg := `Hello world

--- GitMsg: ext="social"; type="post"; v="1"; ext-v="1" ---`

	r := Parse(msg, nil)
	if r == nil {
		t.Fatal("expected parse result")
	}
	out := Write(r)
	r2 := Parse(out, nil)
	if r2 == nil {
		t.Fatal("expected round-tripped message to parse")
	}
	if r2.Header.Ext != r.Header.Ext {
		t.Errorf("ext mismatch after round trip")
	}
	if typ, _ := r2.Header.Fields.Get("type"); typ != "post" {
		t.Errorf("type mismatch after round trip: %q", typ)
	}
}
