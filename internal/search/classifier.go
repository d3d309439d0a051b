package search

import (
	"strings"
	"unicode"
)

// arabicScript covers the Arabic blocks and presentation forms.
var arabicScript = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1},
		{Lo: 0x0750, Hi: 0x077F, Stride: 1},
		{Lo: 0x08A0, Hi: 0x08FF, Stride: 1},
		{Lo: 0xFB50, Hi: 0xFDFF, Stride: 1},
		{Lo: 0xFE70, Hi: 0xFEFF, Stride: 1},
	},
}

// ClassifyQuery labels a raw query. A query made only of Arabic-script runes
// and whitespace that contains exactly one word is a single token; everything
// else, including the empty query, is a phrase.
func ClassifyQuery(query string) QueryType {
	words := strings.Fields(query)
	if len(words) != 1 {
		return QueryTypePhrase
	}
	for _, r := range words[0] {
		if !unicode.Is(arabicScript, r) {
			return QueryTypePhrase
		}
	}
	return QueryTypeSingleToken
}
