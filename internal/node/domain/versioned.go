package domain

// Versioned is a value tagged with the vector clock it was written under.
type Versioned struct {
	Value   []byte      `json:"value"`
	Version VectorClock `json:"version"`
}

// NewVersioned builds a Versioned with a copy of the value bytes.
func NewVersioned(value []byte, version VectorClock) Versioned {
	v := make([]byte, len(value))
	copy(v, value)
	return Versioned{Value: v, Version: version}
}

// Validate checks value size and that a version is attached.
func (v Versioned) Validate() error {
	if len(v.Value) > MaxValueSize {
		return &ValidationError{Field: "value", Reason: "exceeds maximum size"}
	}
	if v.Version.Versions == nil {
		return &ValidationError{Field: "version", Reason: "is required"}
	}
	return nil
}

// Clone deep-copies value and clock.
func (v Versioned) Clone() Versioned {
	return NewVersioned(v.Value, v.Version.Clone())
}

// ApplyOutcome is the explicit result of writing one version into a sibling set.
type ApplyOutcome int

const (
	// Applied means the version was stored.
	Applied ApplyOutcome = iota
	// Dominated means a stored sibling already descends from the version; nothing changed.
	Dominated
)

func (o ApplyOutcome) String() string {
	if o == Dominated {
		return "dominated"
	}
	return "applied"
}

// ApplyVersion merges v into the existing siblings of a key.
//
// If any sibling is equal to or descends from v the set is returned unchanged
// with Dominated. Otherwise siblings that v descends from are dropped, the
// concurrent ones are kept and v is appended.
func ApplyVersion(existing []Versioned, v Versioned) ([]Versioned, ApplyOutcome) {
	kept := make([]Versioned, 0, len(existing)+1)
	for _, ev := range existing {
		switch v.Version.Compare(ev.Version) {
		case Before:
			return existing, Dominated
		case After:
			continue
		default:
			kept = append(kept, ev)
		}
	}
	return append(kept, v), Applied
}

// RemoveVersions drops every sibling that is equal to or older than version.
// It reports whether anything was removed.
func RemoveVersions(existing []Versioned, version VectorClock) ([]Versioned, bool) {
	kept := make([]Versioned, 0, len(existing))
	removed := false
	for _, ev := range existing {
		if ev.Version.Compare(version) == Before {
			removed = true
			continue
		}
		kept = append(kept, ev)
	}
	return kept, removed
}

// MergedVersion returns the element-wise maximum of all sibling clocks.
func MergedVersion(siblings []Versioned) VectorClock {
	merged := NewVectorClock()
	for _, s := range siblings {
		merged = merged.Merge(s.Version)
	}
	return merged
}
