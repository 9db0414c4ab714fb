package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// whitespaceClass is the full ECMAScript \s set. Go's \s only covers
// [\t\n\f\r ], which misses no-break and other Unicode spaces.
const whitespaceClass = `\t\n\v\f\r \x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

// nameTriggers introduce a self-introduction, tried as alternatives in this order.
var nameTriggers = []string{"my name is", "mera naam", "meri naam", "I am", "main"}

// namePatterns are tried in order; the first match wins.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:` + triggerAlternation(nameTriggers) + `)[` + whitespaceClass + `]+([A-Za-z` + whitespaceClass + `]{2,40})`),
}

var repeatedSpace = regexp.MustCompile(`[` + whitespaceClass + `]{2,}`)

// triggerAlternation spells each trigger with explicit ASCII case classes.
// (?i) would also fold the Kelvin sign into k and the long s into s.
func triggerAlternation(triggers []string) string {
	alts := make([]string, len(triggers))
	for i, trigger := range triggers {
		var b strings.Builder
		for _, r := range trigger {
			lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
			if lower == upper {
				b.WriteString(regexp.QuoteMeta(string(r)))
				continue
			}
			b.WriteString("[" + string(lower) + string(upper) + "]")
		}
		alts[i] = b.String()
	}
	return strings.Join(alts, "|")
}

func isNameSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00A0, 0x1680, 0x2028, 0x2029, 0x202F, 0x205F, 0x3000, 0xFEFF:
		return true
	}
	return r >= 0x2000 && r <= 0x200A
}

// ExtractName looks for a self-introduction ("my name is X", "mera naam X",
// "main X", ...) and returns X, or "" when there is none.
//
// The capture runs on past the name until a non-letter, so "mera naam Ravi hai,"
// yields "Ravi hai". Trigger words are not anchored to word boundaries either.
func ExtractName(text string) string {
	for _, pattern := range namePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		return repeatedSpace.ReplaceAllString(strings.TrimFunc(match[1], isNameSpace), " ")
	}
	return ""
}
