package store

import "strings"

// substringEdits returns the fewest single-rune insertions, deletions or
// substitutions that turn pattern into some substring of text, or
// maxEdits+1 when no substring is within maxEdits. prev and cur are scratch
// rows of length len(pattern)+1, reused across calls.
//
// This is Sellers' variant of edit distance: the text side may start and end
// anywhere at no cost.
func substringEdits(pattern, text []rune, maxEdits int, prev, cur []int) int {
	m := len(pattern)
	if m == 0 {
		return 0
	}
	if len(text) < m-maxEdits {
		return maxEdits + 1
	}

	for i := 0; i <= m; i++ {
		prev[i] = i
	}
	best := m

	for _, tc := range text {
		cur[0] = 0
		for i := 1; i <= m; i++ {
			v := prev[i-1]
			if pattern[i-1] != tc {
				v++
			}
			if d := prev[i] + 1; d < v {
				v = d
			}
			if d := cur[i-1] + 1; d < v {
				v = d
			}
			cur[i] = v
		}
		if cur[m] < best {
			best = cur[m]
			if best == 0 {
				break
			}
		}
		prev, cur = cur, prev
	}

	if best > maxEdits {
		return maxEdits + 1
	}
	return best
}

// matcher scores one query against fields. It owns scratch buffers, so a
// matcher must not be shared between goroutines.
type matcher struct {
	query    string
	pattern  []rune
	maxEdits int
	prev     []int
	cur      []int
}

func newMatcher(query string, fuzziness float64) *matcher {
	pattern := []rune(query)
	// The epsilon keeps 0.12*25 from rounding down to 2.
	maxEdits := int(fuzziness*float64(len(pattern)) + 1e-9)
	return &matcher{
		query:    query,
		pattern:  pattern,
		maxEdits: maxEdits,
		prev:     make([]int, len(pattern)+1),
		cur:      make([]int, len(pattern)+1),
	}
}

// edits returns the edit count for the best approximate occurrence of the
// query in text and whether it is within tolerance.
func (m *matcher) edits(text string, textRunes []rune) (int, bool) {
	if text == "" {
		return 0, false
	}
	if strings.Contains(text, m.query) {
		return 0, true
	}
	if m.maxEdits == 0 {
		return 0, false
	}
	e := substringEdits(m.pattern, textRunes, m.maxEdits, m.prev, m.cur)
	return e, e <= m.maxEdits
}
