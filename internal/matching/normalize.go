package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// letters that carry no combining mark under NFKD and would otherwise
// survive diacritic stripping
var foldReplacer = strings.NewReplacer(
	"ß", "ss",
	"ø", "o",
	"đ", "d",
	"ł", "l",
	"æ", "ae",
	"œ", "oe",
	"ı", "i",
	"þ", "th",
)

// maxNormalizePasses bounds the fixpoint loop in Normalize. Real names settle
// after one pass; compatibility letters and recomposing Greek need a second.
const maxNormalizePasses = 8

// Normalize canonicalizes a personal name for comparison: diacritics on Latin
// letters are removed (José -> jose), the result is lower-cased, and
// whitespace runs are collapsed to single spaces. It is idempotent and never
// fails. Other scripts keep their marks and pass through lower-cased.
func Normalize(name string) string {
	s := name
	for range maxNormalizePasses {
		next := normalizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	return s
}

func normalizeOnce(s string) string {
	if s == "" {
		return ""
	}
	// lower again after decomposition: compatibility forms such as "℡" and
	// "ᴭ" expand to upper-case letters
	s = strings.ToLower(stripLatinMarks(strings.ToLower(s)))
	s = strings.ToLower(foldReplacer.Replace(s))
	return strings.Join(strings.Fields(s), " ")
}

// stripLatinMarks drops nonspacing marks that follow a Latin base letter.
// Marks on other scripts (Devanagari vowel signs, for example) are part of
// the letter and are kept.
func stripLatinMarks(s string) string {
	decomposed := norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	latinBase := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if latinBase {
				continue
			}
		} else {
			latinBase = unicode.Is(unicode.Latin, r)
		}
		b.WriteRune(r)
	}

	return norm.NFC.String(b.String())
}
