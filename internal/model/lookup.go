package model

// keyed is implemented by tree values that can be indexed by name.
type keyed interface {
	field(name string) (any, bool)
}

// Lookup walks the snapshot one key per segment and returns the value found
// at the end of the path. Empty segments are skipped. It fails when a key is
// absent or when a segment would index into a value that is not keyed
// (a counter, a string or a drive list).
func (s *Snapshot) Lookup(segments []string) (any, bool) {
	var cur any = s
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		k, ok := cur.(keyed)
		if !ok {
			return nil, false
		}
		if cur, ok = k.field(seg); !ok {
			return nil, false
		}
	}
	return cur, true
}
