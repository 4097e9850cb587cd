// Package lang classifies free chat text as English ("en") or Hindi ("hi"),
// including romanized Hindi / Hinglish written in Latin script that a purely
// statistical detector misses.
package lang

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
)

// Romanized Hindi words and particles common in casual chat.
var hindiKeywords = map[string]struct{}{
	"kya": {}, "kaise": {}, "hai": {}, "hain": {}, "nahi": {}, "haan": {},
	"tum": {}, "mera": {}, "tera": {}, "kyu": {}, "kyon": {}, "batao": {},
	"pyaar": {}, "yaar": {}, "acha": {}, "theek": {}, "samjha": {}, "kar": {},
	"kuch": {}, "kal": {}, "abhi": {}, "chalo": {}, "bolo": {},
}

// High-frequency English function words. One hit plus one Hindi hit marks
// the text as code-switched.
var englishKeywords = map[string]struct{}{
	"i": {}, "you": {}, "the": {}, "is": {}, "are": {}, "love": {},
	"good": {}, "ok": {}, "what": {}, "how": {}, "do": {},
}

var wordPattern = regexp.MustCompile(`[a-zA-Z']+`)

// Detect returns "hi" or "en" for the given text. It never fails: when the
// statistical pass is inconclusive the lexicon heuristic alone decides.
//
// Decision order: statistical Hindi or >=2 romanized-Hindi hits wins; mixed
// Hindi+English text is treated as Hinglish and answered in Hindi style;
// everything else is English.
func Detect(text string) string {
	// Trigram detection splits the Devanagari cluster into Hindi, Bhojpuri,
	// Marathi and friends; for reply style they are all Hindi, so the
	// script alone is a sufficient signal.
	info := whatlanggo.Detect(text)
	statisticalHindi := info.Lang == whatlanggo.Hin || info.Script == unicode.Devanagari

	hindiHits := 0
	engHits := 0
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, ok := hindiKeywords[word]; ok {
			hindiHits++
		}
		if _, ok := englishKeywords[word]; ok {
			engHits++
		}
	}

	if statisticalHindi || hindiHits >= 2 {
		return "hi"
	}
	if hindiHits > 0 && engHits > 0 {
		return "hi"
	}
	return "en"
}
