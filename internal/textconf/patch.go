package textconf

import "strings"

// Pair is one desired key/value. Patch operations take ordered slices so
// rendered output is deterministic.
type Pair struct {
	Key   string
	Value string
}

// EnsureSection reconciles key/value pairs inside the named top-level
// section. Existing key lines with a different value are rewritten in
// place, keeping their indentation. Missing keys are inserted directly
// after the section header. A missing section is appended at the end of
// the document with all desired keys. Lines outside the section span are
// never touched. Returns true if the document changed.
func (d *Document) EnsureSection(section string, pairs []Pair) bool {
	s := d.Section(section)
	if s == nil {
		block := []string{"", "[" + section + "]"}
		for _, p := range pairs {
			block = append(block, p.Key+" = "+p.Value)
		}
		if len(d.lines) == 0 {
			block = block[1:]
		}
		d.splice(len(d.lines), len(d.lines), block)
		return true
	}

	changed := false
	var missing []string
	for _, p := range pairs {
		switch d.updateKey(section, p) {
		case keyUpdated:
			changed = true
		case keyMissing:
			missing = append(missing, p.Key+" = "+p.Value)
		}
	}
	// Missing keys go in as one block after the header, in caller order.
	if len(missing) > 0 {
		s = d.Section(section)
		d.splice(s.Header+1, s.Header+1, missing)
		changed = true
	}
	return changed
}

type keyState int

const (
	keyUnchanged keyState = iota
	keyUpdated
	keyMissing
)

// updateKey rewrites an existing direct key of the section in place, or
// reports it missing.
func (d *Document) updateKey(section string, p Pair) keyState {
	s := d.Section(section)
	for _, kv := range s.Keys {
		if !sameName(kv.Key, p.Key) {
			continue
		}
		if inBlock(s, kv.Line) {
			continue
		}
		if kv.Value == p.Value {
			return keyUnchanged
		}
		tok := tokenize(d.lines[kv.Line])
		d.splice(kv.Line, kv.Line+1, []string{tok.indent + kv.Key + " = " + p.Value})
		return keyUpdated
	}
	return keyMissing
}

func (d *Document) ensureKey(section string, p Pair) bool {
	switch d.updateKey(section, p) {
	case keyUnchanged:
		return false
	case keyUpdated:
		return true
	}
	s := d.Section(section)
	d.splice(s.Header+1, s.Header+1, []string{p.Key + " = " + p.Value})
	return true
}

// inBlock reports whether line i sits inside one of s's sub-blocks.
// EnsureSection owns only the section's direct keys.
func inBlock(s *Section, i int) bool {
	for _, b := range s.Blocks {
		if i >= b.Start && i < b.End {
			return true
		}
	}
	return false
}

// EnsureSubBlock reconciles one [[block]] inside the named section. An
// existing block is compared against a fresh rendering of the desired
// pairs and replaced wholesale when they differ; sub-blocks are short,
// fully-owned units, so whole-block replacement is more predictable than
// per-line patching. A missing block is appended at the end of the
// section, and a missing section is created first. Returns true if the
// document changed.
func (d *Document) EnsureSubBlock(section, block string, pairs []Pair) bool {
	rendered := renderBlock(block, pairs)

	s := d.Section(section)
	if s == nil {
		repl := append([]string{"", "[" + section + "]"}, rendered...)
		if len(d.lines) == 0 {
			repl = repl[1:]
		}
		d.splice(len(d.lines), len(d.lines), repl)
		return true
	}

	b := s.Block(block)
	if b == nil {
		d.splice(s.End, s.End, rendered)
		return true
	}

	if equalLines(d.lines[b.Start:b.End], rendered) {
		return false
	}
	d.splice(b.Start, b.End, rendered)
	return true
}

func renderBlock(name string, pairs []Pair) []string {
	out := make([]string, 0, len(pairs)+1)
	out = append(out, "  [["+name+"]]")
	for _, p := range pairs {
		out = append(out, "    "+p.Key+" = "+p.Value)
	}
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MergeListKey unions values into a comma-separated list key inside the
// named section, preserving the order of existing entries and appending
// only genuinely new ones. Existing entries are never removed, so a
// user-curated list survives. Returns true if the document changed.
func (d *Document) MergeListKey(section, key string, values []string) bool {
	s := d.Section(section)
	if s == nil {
		return d.EnsureSection(section, []Pair{{Key: key, Value: joinList(values)}})
	}

	for _, kv := range s.Keys {
		if !sameName(kv.Key, key) || inBlock(s, kv.Line) {
			continue
		}
		existing := splitList(kv.Value)
		merged := mergeList(existing, values)
		if len(merged) == len(existing) {
			return false
		}
		tok := tokenize(d.lines[kv.Line])
		d.splice(kv.Line, kv.Line+1, []string{tok.indent + kv.Key + " = " + joinList(merged)})
		return true
	}
	return d.ensureKey(section, Pair{Key: key, Value: joinList(values)})
}

// splitList tolerates both comma- and whitespace-separated values; the
// file format accepts either.
func splitList(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func mergeList(existing, wanted []string) []string {
	seen := make(map[string]bool, len(existing)+len(wanted))
	out := make([]string, 0, len(existing)+len(wanted))
	for _, v := range existing {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range wanted {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func joinList(values []string) string {
	return strings.Join(mergeList(values, nil), ",")
}
