package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

func newDefault(t *testing.T) *Normalizer {
	t.Helper()
	n, err := New(DefaultOptions())
	require.NoError(t, err)
	return n
}

func TestNormalizer_Normalize_StripsMarksAndUnifiesLetters(t *testing.T) {
	n := newDefault(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \t\n ", ""},
		{"harakat", "بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ", "بسم الله الرحمن الرحيم"},
		{"hamza alif forms", "أإآٱ", "اااا"},
		{"hamza on waw", "مؤمن", "مومن"},
		{"tatwil", "الـــرحمن", "الرحمن"},
		{"lam alif ligature", "ﻻ اله", "لا اله"},
		{"swash kaf", "ڪتاب", "كتاب"},
		{"alif maksura", "موسى", "موسي"},
		{"ya hamza kept by default", "شئ", "شئ"},
		{"ta marbuta kept by default", "رحمة", "رحمة"},
		{"whitespace collapse", "  قل   هو\tالله  ", "قل هو الله"},
		{"quranic annotation marks", "ذَٰلِكَ ٱلْكِتَٰبُ لَا رَيْبَ ۛ فِيهِ ۛ", "ذلك الكتب لا ريب فيه"},
		{"decomposed madda composes then unifies", "آ", "ا"},
		{"latin untouched", "Ar-Rahman", "Ar-Rahman"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalizer_Normalize_AppliesRewriteRulesInOrder(t *testing.T) {
	n := newDefault(t)

	// Given: text hit by the default rules
	// Then: each rule rewrites every occurrence
	assert.Equal(t, "كفر", n.Normalize("كافر"))
	assert.Equal(t, "الكفرون", n.Normalize("الكافرون"))
	assert.Equal(t, "السموت والارض", n.Normalize("السماوات والأرض"))
	assert.Equal(t, "يايها الناس", n.Normalize("يَا أَيُّهَا النَّاسُ"))
}

func TestNormalizer_Normalize_LetterNamesReplaceWholeQuery(t *testing.T) {
	n := newDefault(t)

	tests := []struct {
		input string
		want  string
	}{
		{"الف لام ميم", "الم"},
		{"  ألف لام ميم ", "الم"},
		{"يا سين", "يس"},
		{"طا ها", "طه"},
		{"صاد", "ص"},
		{"ح م", "حم"},
		{"ALIF LAM MIM SAD", "المص"},
		{"kaf ha ya ain shad", "كهيعص"},
		{"كاف ها يا عين صاد", "كهيعص"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}

	// Only whole-query matches are rewritten.
	assert.Equal(t, "الف لام ميم ذلك", n.Normalize("الف لام ميم ذلك"))
}

func TestNormalizer_NormalizeLiteral_SkipsLetterNames(t *testing.T) {
	n := newDefault(t)

	tests := []struct {
		input       string
		wantLiteral string
		wantCluster string
	}{
		{"حَمِيمٍ", "حميم", "حم"},
		{"صاد", "صاد", "ص"},
		{"نون", "نون", "ن"},
		{"الرحيم", "الرحيم", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.wantLiteral, n.NormalizeLiteral(tt.input))

			cluster, ok := n.LetterCluster(tt.input)
			assert.Equal(t, tt.wantCluster != "", ok)
			assert.Equal(t, tt.wantCluster, cluster)
		})
	}
	assert.Empty(t, n.NormalizeLiteral(""))
}

func TestNew_ConvergingChainIsAccepted(t *testing.T) {
	// Given: rules that feed each other but settle
	n, err := New(Options{RuleSet: RuleSet{Rules: []Rule{{Find: "ب", Replace: "ت"}, {Find: "تت", Replace: "ث"}}}})
	require.NoError(t, err)

	// Then: the output is a fixed point
	once := n.Normalize("بببب")
	assert.Equal(t, "ثث", once)
	assert.Equal(t, once, n.Normalize(once))
}

func TestNormalizer_Normalize_IsIdempotent(t *testing.T) {
	n := newDefault(t)

	inputs := []string{
		"",
		"بِسْمِ ٱللَّهِ ٱلرَّحْمَٰنِ ٱلرَّحِيمِ",
		"يا ا ا ا",
		"حَمِيم",
		"الف لام ميم",
		"ﻻ   إِلَٰهَ إِلَّا ٱللَّهُ",
		"السماوات سماوات",
		"Kaf Ha Ya Ain Sad",
		"ۛ ۛ",
		"آٔ",
	}

	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "input %q", in)
	}
}

func TestNormalizer_UnificationFlags(t *testing.T) {
	// Given: every unification flag on
	opts := DefaultOptions()
	opts.UnifyYaHamza = true
	opts.UnifyTaMarbuta = true
	n, err := New(opts)
	require.NoError(t, err)

	// Then: the optional letters fold too
	assert.Equal(t, "شي", n.Normalize("شئ"))
	assert.Equal(t, "رحمه", n.Normalize("رحمة"))

	// Given: every flag off
	opts = Options{}
	n, err = New(opts)
	require.NoError(t, err)

	// Then: alif maksura is kept
	assert.Equal(t, "موسى", n.Normalize("موسى"))
	assert.False(t, n.Options().UnifyAlifMaksura)
}

func TestNormalizer_EmptyRuleSetOnlyFolds(t *testing.T) {
	n, err := New(Options{})
	require.NoError(t, err)

	assert.Equal(t, "كافر", n.Normalize("كَافِر"))
	assert.Equal(t, "الف لام ميم", n.Normalize("الف لام ميم"))
}

func TestNew_RejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rs   RuleSet
	}{
		{"empty find", RuleSet{Rules: []Rule{{Find: "", Replace: "x"}}}},
		{"find made only of marks", RuleSet{Rules: []Rule{{Find: "َ", Replace: "x"}}}},
		{"replacement contains find", RuleSet{Rules: []Rule{{Find: "ب", Replace: "بب"}}}},
		{"rules feed each other forever", RuleSet{Rules: []Rule{{Find: "ب", Replace: "تت"}, {Find: "ت", Replace: "ب"}}}},
		{"empty letter cluster", RuleSet{LetterNames: map[string]string{"نون": "ً"}}},
		{"cluster is a key", RuleSet{LetterNames: map[string]string{"نون": "ن", "ن": "نون"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{RuleSet: tt.rs})
			require.Error(t, err)
			assert.Equal(t, aerrors.ErrCodeRulesInvalid, aerrors.GetCode(err))
		})
	}
}

func TestNew_FoldsRulesLikeText(t *testing.T) {
	// Given: a rule written with harakat and a hamza form
	n, err := New(Options{RuleSet: RuleSet{Rules: []Rule{{Find: "إِلَٰه", Replace: "رب"}}}})
	require.NoError(t, err)

	// Then: it matches the folded text
	assert.Equal(t, "لا رب الا", n.Normalize("لا إله إلا"))
}

func TestMustNew_PanicsOnInvalidOptions(t *testing.T) {
	assert.Panics(t, func() {
		MustNew(Options{RuleSet: RuleSet{Rules: []Rule{{Find: ""}}}})
	})
	assert.NotPanics(t, func() { MustNew(DefaultOptions()) })
}

func TestIsMark(t *testing.T) {
	assert.True(t, IsMark('َ')) // fatha
	assert.True(t, IsMark('ٰ')) // superscript alif
	assert.True(t, IsMark('ـ')) // tatwil
	assert.True(t, IsMark('ۛ'))
	assert.False(t, IsMark('ا'))
	assert.False(t, IsMark('a'))
}
