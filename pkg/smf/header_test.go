package smf

import (
	"errors"
	"testing"
)

func TestCoordinateSystem_Perpendicular(t *testing.T) {
	tests := []struct {
		text    string
		wantErr bool
	}{
		{"+x +y -z counter-clockwise", false},
		{"-x +z +y clockwise", false},
		{"+x +x +x counter-clockwise", true},
		{"+x -x +y clockwise", true},
		{"+x +y -z q", true},
		{"a b c counter-clockwise", true},
		{"+x +y", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			c, err := ParseCoordinateSystem(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("got error=%v, wantErr=%v", err, tt.wantErr)
			}
			if err == nil && c.String() != tt.text {
				t.Errorf("String() = %q, want %q", c.String(), tt.text)
			}
			if err != nil && !errors.Is(err, ErrInvalidCoordinates) {
				t.Errorf("error %v does not wrap ErrInvalidCoordinates", err)
			}
		})
	}
}

func TestHeaderBuilder_Defaults(t *testing.T) {
	h, err := NewHeaderBuilder().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if h.VertexCount() != 0 {
		t.Errorf("VertexCount() = %d, want 0", h.VertexCount())
	}
	if h.Triangles().IndexBits() != 32 {
		t.Errorf("IndexBits() = %d, want 32", h.Triangles().IndexBits())
	}
	if h.CoordinateSystem() != DefaultCoordinateSystem() {
		t.Errorf("CoordinateSystem() = %s", h.CoordinateSystem())
	}
	if _, ok := h.SchemaIdentifier(); ok {
		t.Error("expected no schema identifier")
	}
	if h.ByteOrder() != BigEndian {
		t.Errorf("ByteOrder() = %s, want big", h.ByteOrder())
	}
}

func TestHeaderBuilder_Attributes(t *testing.T) {
	b := NewHeaderBuilder().
		AddAttribute(MustAttribute("position", KindFloat, 3, 32)).
		AddAttribute(MustAttribute("normal", KindFloat, 3, 32)).
		AddAttribute(MustAttribute("uv", KindFloat, 2, 16))

	h, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	attrs := h.Attributes()
	if len(attrs) != 3 {
		t.Fatalf("attribute count = %d, want 3", len(attrs))
	}
	want := []string{"position", "normal", "uv"}
	for i, name := range want {
		if attrs[i].Name() != name {
			t.Errorf("Attributes()[%d] = %q, want %q", i, attrs[i].Name(), name)
		}
		if _, ok := h.Attribute(name); !ok {
			t.Errorf("Attribute(%q) not found", name)
		}
	}

	// Mutating the returned slice must not affect the header.
	attrs[0] = MustAttribute("other", KindFloat, 1, 32)
	if h.Attributes()[0].Name() != "position" {
		t.Error("header attributes were mutated through Attributes()")
	}
}

func TestHeaderBuilder_DuplicateAttribute(t *testing.T) {
	_, err := NewHeaderBuilder().
		AddAttribute(MustAttribute("p", KindFloat, 3, 32)).
		AddAttribute(MustAttribute("p", KindFloat, 2, 32)).
		Build()
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestHeader_EqualAndBuilder(t *testing.T) {
	tri, _ := NewTriangles(4, 16)
	h0, err := NewHeaderBuilder().
		SetVertexCount(3).
		SetTriangles(tri).
		SetMetaCount(2).
		SetByteOrder(LittleEndian).
		SetSchemaIdentifier(SchemaIdentifier{Vendor: 1, Schema: 2, Major: 3, Minor: 4}).
		AddAttribute(MustAttribute("p", KindIntegerSigned, 3, 64)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	h1, err := h0.Builder().Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !h0.Equal(h1) {
		t.Error("expected rebuilt header to be equal")
	}

	h2, _ := h0.Builder().SetVertexCount(4).Build()
	if h0.Equal(h2) {
		t.Error("expected headers with different vertex counts to differ")
	}
}

func TestSchemaIdentifier(t *testing.T) {
	a := SchemaIdentifier{Vendor: 0x696f376d, Schema: 1, Major: 1, Minor: 2}
	b := SchemaIdentifier{Vendor: 0x696f376d, Schema: 1, Major: 2, Minor: 0}

	if !a.SameSchema(b) {
		t.Error("expected SameSchema")
	}
	if a.CompareVersion(b) >= 0 {
		t.Error("expected 1.2 < 2.0")
	}
	if b.CompareVersion(a) <= 0 {
		t.Error("expected 2.0 > 1.2")
	}
	if a.String() != "696f376d 00000001 1.2" {
		t.Errorf("String() = %q", a.String())
	}
	if !(SchemaIdentifier{}).IsZero() {
		t.Error("expected zero identifier")
	}
}

func TestFormatVersion(t *testing.T) {
	versions := []FormatVersion{{2, 0}, {1, 5}, {1, 0}, {2, 1}}
	SortVersions(versions)
	want := []FormatVersion{{1, 0}, {1, 5}, {2, 0}, {2, 1}}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("versions[%d] = %s, want %s", i, versions[i], want[i])
		}
	}
	if !(FormatVersion{2, 1}).AtLeast(2, 0) {
		t.Error("expected 2.1 >= 2.0")
	}
	if (FormatVersion{1, 9}).AtLeast(2, 0) {
		t.Error("expected 1.9 < 2.0")
	}

	v, err := ParseFormatVersion("2.10")
	if err != nil || v != (FormatVersion{2, 10}) {
		t.Errorf("ParseFormatVersion(2.10) = %s, %v", v, err)
	}
	for _, bad := range []string{"", "2", "2.x", "-1.0", "1.0.0"} {
		if _, err := ParseFormatVersion(bad); err == nil {
			t.Errorf("ParseFormatVersion(%q) succeeded", bad)
		}
	}
}

func TestErrors_Combine(t *testing.T) {
	e0 := NewError(KindLexical, Position{Line: 1}, "bad token")
	e1 := Errorf(KindRange, Position{Offset: 16}, "value %d too large", 300)

	combined := Combine([]*Error{e0, e1})
	split := Errors(combined)
	if len(split) != 2 || split[0] != e0 || split[1] != e1 {
		t.Fatalf("Errors(Combine()) = %v", split)
	}
	if Combine(nil) != nil {
		t.Error("Combine(nil) should be nil")
	}

	cause := errors.New("disk on fire")
	wrapped := WrapError(KindTransport, Position{}, cause, "read failed")
	if !errors.Is(wrapped, cause) {
		t.Error("expected wrapped error to retain cause")
	}
}
