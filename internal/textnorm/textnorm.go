// Package textnorm provides the query rewrites used for corpus augmentation.
package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var urlPattern = regexp.MustCompile(`\bhttps?://\S+|\bwww\.\S+`)

// Expansions for letters that canonical decomposition leaves alone.
var expansions = strings.NewReplacer(
	"ß", "ss", "ẞ", "SS",
	"æ", "ae", "Æ", "AE",
	"œ", "oe", "Œ", "OE",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"þ", "th", "Þ", "TH",
	"ð", "d", "Ð", "D",
)

// Strip removes URLs and punctuation and collapses runs of whitespace.
// Apostrophes are dropped without leaving a gap, all other punctuation
// becomes a word break.
func Strip(s string) string {
	s = urlPattern.ReplaceAllString(s, " ")
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Fold transliterates accented and ligature letters to their ASCII
// equivalents, leaving everything else untouched.
func Fold(s string) string {
	s = expansions.Replace(s)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
