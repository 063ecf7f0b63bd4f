package qbt

import "regexp"

// qBittorrent has printed its generated password in a few different
// phrasings across releases; most specific first so the generic
// "password:" form cannot grab an unrelated line.
var tempPasswordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)temporary password.*?:\s*(\S+)`),
	regexp.MustCompile(`(?i)temp.*password.*?:\s*(\S+)`),
	regexp.MustCompile(`(?i)password:\s*(\S+)`),
	regexp.MustCompile(`(?i)web\s*ui.*credentials.*\badmin\b.*\b([A-Za-z0-9._-]{6,})`),
}

// TempPasswordFromLogs extracts the temporary Web UI password a fresh
// qBittorrent container prints on first start.
func TempPasswordFromLogs(logs string) (string, bool) {
	for _, re := range tempPasswordPatterns {
		if m := re.FindStringSubmatch(logs); m != nil {
			return m[1], true
		}
	}
	return "", false
}
