package textconf

import (
	"regexp"
	"strings"
)

type lineKind int

const (
	lineOther lineKind = iota
	lineSection
	lineSubBlock
	lineKeyValue
)

// token is the classification of a single line. Name, Key, and Value are
// trimmed; Indent preserves the original leading whitespace of key/value
// lines so in-place rewrites keep the file's formatting.
type token struct {
	kind   lineKind
	name   string
	key    string
	value  string
	indent string
}

var (
	sectionRe  = regexp.MustCompile(`^\s*\[([^\[\]]+)\]\s*$`)
	subBlockRe = regexp.MustCompile(`^\s*\[\[\s*([^\[\]]+?)\s*\]\]\s*$`)
	keyValueRe = regexp.MustCompile(`^(\s*)([^=\s\[][^=]*?)\s*=(.*)$`)
)

func tokenize(line string) token {
	if m := subBlockRe.FindStringSubmatch(line); m != nil {
		return token{kind: lineSubBlock, name: strings.TrimSpace(m[1])}
	}
	if m := sectionRe.FindStringSubmatch(line); m != nil {
		return token{kind: lineSection, name: strings.TrimSpace(m[1])}
	}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, ";") {
		return token{kind: lineOther}
	}
	if m := keyValueRe.FindStringSubmatch(line); m != nil {
		return token{kind: lineKeyValue, indent: m[1], key: m[2], value: strings.TrimSpace(m[3])}
	}
	return token{kind: lineOther}
}

// sameName compares section, block, and key names the way the file format
// does: case-insensitively.
func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
