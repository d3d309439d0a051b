// Package normalize folds Arabic text into a canonical comparable form.
//
// The same Normalizer must be applied to indexed documents and to queries;
// the lexical and semantic indexes both assume it. Normalization removes
// harakat and Quranic annotation marks, unifies hamza-bearing and ligature
// letter forms, collapses whitespace and applies an ordered table of literal
// rewrite rules. A whole query naming the disjointed letters (for example the
// spoken "الف لام ميم") is replaced by the letter cluster first.
//
// A Normalizer is immutable and safe for concurrent use.
package normalize

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

// maxRewritePasses bounds how often the rule table is reapplied while
// looking for a fixed point.
const maxRewritePasses = 8

// Options configures a Normalizer.
type Options struct {
	// RuleSet holds the rewrite rules and spoken letter names.
	RuleSet RuleSet

	// UnifyAlifMaksura maps ى to ي.
	UnifyAlifMaksura bool

	// UnifyYaHamza maps ئ to ي.
	UnifyYaHamza bool

	// UnifyTaMarbuta maps ة to ه.
	UnifyTaMarbuta bool
}

// DefaultOptions returns the embedded rule set with alif maksura unification
// on and the more aggressive ya-hamza and ta-marbuta unification off.
func DefaultOptions() Options {
	return Options{
		RuleSet:          DefaultRuleSet(),
		UnifyAlifMaksura: true,
	}
}

// Normalizer applies the normalization pipeline.
type Normalizer struct {
	opts        Options
	rules       []Rule
	letterNames map[string]string
}

// New builds a Normalizer. Rules and letter names are folded into the same
// canonical form as the text they will be matched against. A rule with an
// empty find, or whose replacement contains its find, is rejected. So is a
// table that does not reach a fixed point on some rule's find or replace
// string within maxRewritePasses, and a letter name whose cluster would
// itself be recognised as a letter name.
func New(opts Options) (*Normalizer, error) {
	n := &Normalizer{opts: opts}

	n.rules = make([]Rule, 0, len(opts.RuleSet.Rules))
	for i, r := range opts.RuleSet.Rules {
		find := n.fold(r.Find, false)
		replace := n.fold(r.Replace, false)
		if find == "" {
			return nil, aerrors.Newf(aerrors.ErrCodeRulesInvalid,
				"rewrite rule %d has an empty find string", i+1)
		}
		if strings.Contains(replace, find) {
			return nil, aerrors.Newf(aerrors.ErrCodeRulesInvalid,
				"rewrite rule %d (%q -> %q) never converges: replacement contains the find string", i+1, r.Find, r.Replace).
				WithSuggestion("Rules must shrink or change the text they match")
		}
		n.rules = append(n.rules, Rule{Find: find, Replace: replace})
	}
	for i, r := range n.rules {
		for _, text := range []string{r.Find, r.Replace} {
			if _, ok := n.rewrite(text); !ok {
				return nil, aerrors.Newf(aerrors.ErrCodeRulesInvalid,
					"rewrite rule %d (%q -> %q) never converges: the table keeps changing %q after %d passes",
					i+1, opts.RuleSet.Rules[i].Find, opts.RuleSet.Rules[i].Replace, text, maxRewritePasses).
					WithSuggestion("Rules must shrink or change the text they match")
			}
		}
	}

	n.letterNames = make(map[string]string, len(opts.RuleSet.LetterNames))
	for name, cluster := range opts.RuleSet.LetterNames {
		key := n.canonical(strings.ToLower(strings.TrimSpace(name)))
		value := n.canonical(cluster)
		if key == "" || value == "" {
			return nil, aerrors.Newf(aerrors.ErrCodeRulesInvalid,
				"letter name %q -> %q normalizes to an empty string", name, cluster)
		}
		n.letterNames[key] = value
	}
	for name, cluster := range n.letterNames {
		if _, clash := n.letterNames[cluster]; clash {
			return nil, aerrors.Newf(aerrors.ErrCodeRulesInvalid,
				"letter name %q maps to %q, which is itself a letter name", name, cluster)
		}
	}

	return n, nil
}

// MustNew is New for option sets known to be valid, such as DefaultOptions.
func MustNew(opts Options) *Normalizer {
	n, err := New(opts)
	if err != nil {
		panic(fmt.Sprintf("normalize: %v", err))
	}
	return n
}

// Options returns the options the normalizer was built with.
func (n *Normalizer) Options() Options {
	return n.opts
}

// Normalize returns the canonical form of text. Empty input yields "".
// A whole input spelling out disjointed letters becomes the letter cluster.
// Normalize(Normalize(x)) == Normalize(x) for any x.
func (n *Normalizer) Normalize(text string) string {
	if cluster, ok := n.LetterCluster(text); ok {
		return cluster
	}
	return n.NormalizeLiteral(text)
}

// NormalizeLiteral is Normalize without the letter-name lookup. Documents
// are normalized this way, and a query that is both a letter name and a
// real word ("حميم", "نون") is matched in this form too.
func (n *Normalizer) NormalizeLiteral(text string) string {
	if text == "" {
		return ""
	}
	return n.canonical(text)
}

// LetterCluster returns the letter cluster named by the whole of text.
func (n *Normalizer) LetterCluster(text string) (string, bool) {
	if text == "" || len(n.letterNames) == 0 {
		return "", false
	}
	cluster, ok := n.letterNames[n.canonical(strings.ToLower(strings.TrimSpace(text)))]
	return cluster, ok
}

// canonical runs folding then the rewrite table.
func (n *Normalizer) canonical(text string) string {
	s, _ := n.rewrite(n.fold(text, true))
	return s
}

// rewrite applies the rule table until the text stops changing. ok is false
// when the bound was hit first.
func (n *Normalizer) rewrite(s string) (string, bool) {
	if len(n.rules) == 0 {
		return s, true
	}
	for pass := 0; pass < maxRewritePasses; pass++ {
		next := s
		for _, r := range n.rules {
			next = strings.ReplaceAll(next, r.Find, r.Replace)
		}
		next = collapseSpace(next)
		if next == s {
			return s, true
		}
		s = next
	}
	return s, false
}

// fold composes the text, drops marks and unifies letter forms. When
// collapse is set, whitespace runs become one space and the ends are trimmed.
func (n *Normalizer) fold(text string, collapse bool) string {
	composed := norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(composed))

	pendingSpace := false
	for _, r := range composed {
		if unicode.IsSpace(r) {
			if collapse {
				pendingSpace = b.Len() > 0
				continue
			}
			b.WriteRune(r)
			continue
		}
		if IsMark(r) {
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		n.writeUnified(&b, r)
	}
	return b.String()
}

func (n *Normalizer) writeUnified(b *strings.Builder, r rune) {
	switch r {
	case 'أ', 'إ', 'آ', 'ٱ', 'ٲ', 'ٳ':
		b.WriteRune('ا')
	case 'ؤ':
		b.WriteRune('و')
	case 'ڪ':
		b.WriteRune('ك')
	case 'ﻵ', 'ﻶ', 'ﻷ', 'ﻸ', 'ﻹ', 'ﻺ', 'ﻻ', 'ﻼ':
		b.WriteString("لا")
	case 'ى':
		if n.opts.UnifyAlifMaksura {
			r = 'ي'
		}
		b.WriteRune(r)
	case 'ئ':
		if n.opts.UnifyYaHamza {
			r = 'ي'
		}
		b.WriteRune(r)
	case 'ة':
		if n.opts.UnifyTaMarbuta {
			r = 'ه'
		}
		b.WriteRune(r)
	default:
		b.WriteRune(r)
	}
}

// IsMark reports whether r is a harakah, Quranic annotation mark or tatwil,
// all of which normalization removes.
func IsMark(r rune) bool {
	switch {
	case r >= 0x0610 && r <= 0x061A:
		return true
	case r >= 0x064B && r <= 0x065F:
		return true
	case r == 0x0670, r == 0x0640:
		return true
	case r >= 0x06D6 && r <= 0x06ED:
		return true
	}
	return false
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
