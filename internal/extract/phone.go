package extract

import "regexp"

// Indian mobile number: 10 digits starting 6-9, with an optional 91/+91
// country-code prefix that gets stripped. The surrounding non-digit
// guards keep the match from landing inside a longer digit run.
var phonePattern = regexp.MustCompile(`(?:^|[^\d])(?:\+?91[\s-]?)?([6-9]\d{9})(?:[^\d]|$)`)

// Phone extracts a normalized 10-digit mobile number, or "" if none is
// present.
func Phone(text string) string {
	m := phonePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
