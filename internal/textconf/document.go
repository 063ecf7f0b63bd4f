package textconf

import "strings"

// KeyValue is one parsed "key = value" line inside a section.
type KeyValue struct {
	Line  int
	Key   string
	Value string
}

// SubBlock is the line span of one [[name]] block: Start is the header
// line, End is the first line after the block.
type SubBlock struct {
	Name  string
	Start int
	End   int
}

// Section is the line span of one [name] section: Header is the header
// line, End is the first line after the section (the next header or EOF).
// Keys holds the key/value lines directly inside the section, including
// those inside its sub-blocks.
type Section struct {
	Name   string
	Header int
	End    int
	Keys   []KeyValue
	Blocks []SubBlock
}

// Document is a parsed configuration file. Mutations operate on the line
// slice and re-derive the section tree, so spans stay consistent.
type Document struct {
	lines           []string
	trailingNewline bool
	sections        []Section
}

// Parse tokenizes text into a Document. It never fails: lines that do not
// match any structural form are kept verbatim and ignored by lookups.
func Parse(text string) *Document {
	d := &Document{trailingNewline: strings.HasSuffix(text, "\n")}
	if text != "" {
		d.lines = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	}
	d.reindex()
	return d
}

func (d *Document) reindex() {
	d.sections = nil
	for i, line := range d.lines {
		tok := tokenize(line)
		switch tok.kind {
		case lineSection:
			d.closeSection(i)
			d.sections = append(d.sections, Section{Name: tok.name, Header: i, End: len(d.lines)})
		case lineSubBlock:
			if cur := d.current(); cur != nil {
				d.closeBlock(cur, i)
				cur.Blocks = append(cur.Blocks, SubBlock{Name: tok.name, Start: i, End: cur.End})
			}
		case lineKeyValue:
			if cur := d.current(); cur != nil {
				cur.Keys = append(cur.Keys, KeyValue{Line: i, Key: tok.key, Value: tok.value})
			}
		}
	}
	d.closeSection(len(d.lines))
}

func (d *Document) current() *Section {
	if len(d.sections) == 0 {
		return nil
	}
	return &d.sections[len(d.sections)-1]
}

func (d *Document) closeSection(at int) {
	cur := d.current()
	if cur == nil {
		return
	}
	cur.End = at
	d.closeBlock(cur, at)
}

func (d *Document) closeBlock(s *Section, at int) {
	if len(s.Blocks) > 0 {
		s.Blocks[len(s.Blocks)-1].End = at
	}
}

// Render joins the document back into file text. A document parsed and
// rendered without mutation reproduces its input byte for byte.
func (d *Document) Render() string {
	if len(d.lines) == 0 {
		return ""
	}
	out := strings.Join(d.lines, "\n")
	if d.trailingNewline {
		out += "\n"
	}
	return out
}

// Section returns the section with the given name, or nil.
func (d *Document) Section(name string) *Section {
	for i := range d.sections {
		if sameName(d.sections[i].Name, name) {
			return &d.sections[i]
		}
	}
	return nil
}

// Block returns the named sub-block inside s, or nil.
func (s *Section) Block(name string) *SubBlock {
	for i := range s.Blocks {
		if sameName(s.Blocks[i].Name, name) {
			return &s.Blocks[i]
		}
	}
	return nil
}

// Lookup returns the value of a key inside a section, searching the whole
// section span including sub-blocks.
func (d *Document) Lookup(section, key string) (string, bool) {
	s := d.Section(section)
	if s == nil {
		return "", false
	}
	for _, kv := range s.Keys {
		if sameName(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

// splice replaces lines [start,end) with repl and rebuilds the tree.
// Whether the file ends with a newline is part of the parsed input and
// survives edits; only a previously empty document gains one.
func (d *Document) splice(start, end int, repl []string) {
	wasEmpty := len(d.lines) == 0
	out := make([]string, 0, len(d.lines)-(end-start)+len(repl))
	out = append(out, d.lines[:start]...)
	out = append(out, repl...)
	out = append(out, d.lines[end:]...)
	d.lines = out
	if wasEmpty {
		d.trailingNewline = true
	}
	d.reindex()
}
