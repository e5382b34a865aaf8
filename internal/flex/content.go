package flex

// Content is a labeled value. Labels are free-form and may be empty or
// repeated within a group; consumers interpret by position and label.
type Content struct {
	Label string
	Value Value
}

// C is a shorthand for Content construction.
// Example: flex.Group(flex.C("title", flex.Text("v1")))
func C(label string, value Value) Content {
	return Content{Label: label, Value: value}
}

// ContentGroup is an ordered sequence of Content.
type ContentGroup []Content

// Group creates a ContentGroup from contents.
func Group(contents ...Content) ContentGroup {
	return ContentGroup(contents)
}

// Get returns the value of the first content labeled label.
func (g ContentGroup) Get(label string) (Value, bool) {
	for _, c := range g {
		if c.Label == label {
			return c.Value, true
		}
	}
	return nil, false
}

// Clone returns a copy of g that shares no backing array with it.
func (g ContentGroup) Clone() ContentGroup {
	if g == nil {
		return nil
	}
	out := make(ContentGroup, len(g))
	copy(out, g)
	return out
}

// CloneGroups deep-copies a group sequence.
func CloneGroups(groups []ContentGroup) []ContentGroup {
	if groups == nil {
		return nil
	}
	out := make([]ContentGroup, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}

// Lookup returns the value of the first content labeled label across all
// groups, in group order.
func Lookup(groups []ContentGroup, label string) (Value, bool) {
	for _, g := range groups {
		if v, ok := g.Get(label); ok {
			return v, true
		}
	}
	return nil, false
}

// Digests returns every Digest value in g, in order.
func (g ContentGroup) Digests() []Digest {
	var out []Digest
	for _, c := range g {
		if d, ok := c.Value.(Digest); ok {
			out = append(out, d)
		}
	}
	return out
}

// EqualGroups reports whether a and b have identical labels and
// variant-equal values in the same order.
func EqualGroups(a, b []ContentGroup) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j].Label != b[i][j].Label || !Equal(a[i][j].Value, b[i][j].Value) {
				return false
			}
		}
	}
	return true
}

// Document is an immutable, content-addressed record.
// Hash is computed once from ContentGroups at creation. Certificates only
// ever grow and never affect Hash.
type Document struct {
	ID            uint64         `json:"id"`
	Hash          Digest         `json:"hash"`
	Creator       Identifier     `json:"creator"`
	ContentGroups []ContentGroup `json:"content_groups"`
	Certificates  []Certificate  `json:"certificates"`
	CreatedAt     Timestamp      `json:"created_at"`
}

// Certificate is an append-only attestation attached to a document.
type Certificate struct {
	ID          string     `json:"id"` // ULID, sortable by time
	Certifier   Identifier `json:"certifier"`
	Notes       string     `json:"notes"`
	CertifiedAt Timestamp  `json:"certified_at"`
}
