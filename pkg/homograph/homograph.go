// Package homograph flags hostnames built from visually confusable Unicode:
// mixed scripts inside a label, curated lookalike codepoints, punycode
// labels, and compatibility-form drift. It makes no judgment about which
// brand is being imitated; that belongs to the brand detector.
package homograph

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/linkshield/linkshield/pkg/urlinfo"
)

// Result reports whether a host shows homograph characteristics and why.
type Result struct {
	IsHomograph bool     `json:"is_homograph"`
	Details     []string `json:"details,omitempty"`
}

// confusables maps lookalike codepoints to the Latin letter they imitate.
// Cyrillic and Greek rows cover the characters actually seen in IDN
// homograph attacks; fullwidth forms cover copy-paste evasion.
var confusables = map[rune]rune{
	// Cyrillic
	'а': 'a', 'е': 'e', 'і': 'i', 'о': 'o', 'р': 'p', 'с': 'c',
	'у': 'y', 'х': 'x', 'ѕ': 's', 'ԁ': 'd', 'ј': 'j', 'һ': 'h',
	'ҽ': 'e', 'ӏ': 'l', 'ԛ': 'q', 'ԝ': 'w', 'в': 'b', 'м': 'm',
	'н': 'h', 'т': 't', 'к': 'k',
	// Greek
	'ο': 'o', 'α': 'a', 'ν': 'v', 'ι': 'i', 'ρ': 'p', 'τ': 't',
	'υ': 'u', 'κ': 'k', 'η': 'n',
	// Fullwidth Latin
	'ａ': 'a', 'ｂ': 'b', 'ｃ': 'c', 'ｄ': 'd', 'ｅ': 'e', 'ｆ': 'f',
	'ｇ': 'g', 'ｈ': 'h', 'ｉ': 'i', 'ｊ': 'j', 'ｋ': 'k', 'ｌ': 'l',
	'ｍ': 'm', 'ｎ': 'n', 'ｏ': 'o', 'ｐ': 'p', 'ｑ': 'q', 'ｒ': 'r',
	'ｓ': 's', 'ｔ': 't', 'ｕ': 'u', 'ｖ': 'v', 'ｗ': 'w', 'ｘ': 'x',
	'ｙ': 'y', 'ｚ': 'z',
}

// Detect analyzes the host of url. Unparseable input is not a homograph.
// Safe on arbitrary Unicode including unassigned codepoints.
func Detect(url string) Result {
	p := urlinfo.Parse(url)
	if p == nil {
		return Result{}
	}
	return DetectHost(p.Host)
}

// DetectHost analyzes an already-extracted host.
func DetectHost(host string) Result {
	if host == "" {
		return Result{}
	}
	var details []string

	if n := countConfusables(host); n > 0 {
		details = append(details, fmt.Sprintf("host contains %d confusable lookalike character(s)", n))
	}
	if script, ok := mixedScriptLabel(host); ok {
		details = append(details, "host label mixes Latin with "+script+" characters")
	}
	if hasPunycodeLabel(host) {
		details = append(details, "host contains punycode-encoded (xn--) labels")
	}
	if normalized := norm.NFKC.String(host); normalized != host {
		details = append(details, "host changes under Unicode compatibility normalization")
	}

	return Result{IsHomograph: len(details) > 0, Details: details}
}

// Normalize maps confusable codepoints in s to their Latin equivalents,
// leaving everything else untouched.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		if latin, ok := confusables[r]; ok {
			return latin
		}
		return r
	}, s)
}

// HasConfusables reports whether s contains any curated lookalike codepoint.
func HasConfusables(s string) bool {
	return countConfusables(s) > 0
}

func countConfusables(s string) int {
	n := 0
	for _, r := range s {
		if _, ok := confusables[r]; ok {
			n++
		}
	}
	return n
}

// mixedScriptLabel reports the first non-Latin script found in a label that
// also contains Latin characters. Pure single-script hosts (including fully
// Cyrillic IDNs) are not flagged here.
func mixedScriptLabel(host string) (string, bool) {
	for _, label := range strings.Split(host, ".") {
		hasLatin := false
		other := ""
		for _, r := range label {
			switch script := scriptOf(r); script {
			case "":
			case "latin":
				hasLatin = true
			default:
				other = script
			}
		}
		if hasLatin && other != "" {
			return other, true
		}
	}
	return "", false
}

func scriptOf(r rune) string {
	switch {
	case r < 128:
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return "latin"
		}
		return ""
	case unicode.In(r, unicode.Latin):
		return "latin"
	case unicode.In(r, unicode.Cyrillic):
		return "cyrillic"
	case unicode.In(r, unicode.Greek):
		return "greek"
	case unicode.In(r, unicode.Armenian):
		return "armenian"
	case unicode.In(r, unicode.Hebrew):
		return "hebrew"
	case unicode.In(r, unicode.Han):
		return "han"
	default:
		return ""
	}
}

func hasPunycodeLabel(host string) bool {
	for _, label := range strings.Split(host, ".") {
		if strings.HasPrefix(label, "xn--") {
			return true
		}
	}
	return false
}
