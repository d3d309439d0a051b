//go:build ignore

// Package main generates a synthetic verse corpus for benchmarking.
// Usage: go run scripts/generate-test-corpus.go -chapters 114 -verses 50 -output testdata/bench/corpus.jsonl
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numChapters = flag.Int("chapters", 114, "Number of chapters to generate")
	numVerses   = flag.Int("verses", 50, "Verses per chapter")
	outputPath  = flag.String("output", "testdata/bench/corpus.jsonl", "Output JSON Lines file")
	seed        = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Vocalized words drawn from common verse vocabulary, with a rough
// transliteration for the secondary field.
var words = []struct{ arabic, latin string }{
	{"ٱللَّهِ", "allahi"},
	{"ٱلرَّحْمَٰنِ", "ar-rahmani"},
	{"ٱلرَّحِيمِ", "ar-rahimi"},
	{"رَبِّ", "rabbi"},
	{"ٱلْعَٰلَمِينَ", "al-'alamina"},
	{"يَوْمِ", "yawmi"},
	{"ٱلدِّينِ", "ad-dini"},
	{"قُلْ", "qul"},
	{"هُوَ", "huwa"},
	{"أَحَدٌ", "ahadun"},
	{"ٱلصَّمَدُ", "as-samadu"},
	{"ٱلنَّاسِ", "an-nasi"},
	{"مَلِكِ", "maliki"},
	{"إِلَٰهِ", "ilahi"},
	{"ٱلْفَلَقِ", "al-falaqi"},
	{"شَرِّ", "sharri"},
	{"مَا", "ma"},
	{"خَلَقَ", "khalaqa"},
	{"وَٱلْعَصْرِ", "wal-'asri"},
	{"إِنَّ", "inna"},
	{"ٱلْإِنسَٰنَ", "al-insana"},
	{"لَفِى", "lafi"},
	{"خُسْرٍ", "khusrin"},
	{"ٱلَّذِينَ", "alladhina"},
	{"ءَامَنُوا۟", "amanu"},
	{"وَعَمِلُوا۟", "wa'amilu"},
	{"ٱلصَّٰلِحَٰتِ", "as-salihati"},
	{"بِٱلْحَقِّ", "bil-haqqi"},
	{"بِٱلصَّبْرِ", "bis-sabri"},
	{"ٱلْكَوْثَرَ", "al-kawthara"},
}

type document struct {
	ID              int    `json:"id"`
	Chapter         int    `json:"chapter"`
	Text            string `json:"text"`
	Transliteration string `json:"transliteration"`
}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	generated := 0
	for ch := 1; ch <= *numChapters; ch++ {
		for v := 1; v <= *numVerses; v++ {
			if err := enc.Encode(randomVerse(rng, ch, v)); err != nil {
				fmt.Fprintf(os.Stderr, "Error writing verse %d:%d: %v\n", ch, v, err)
				os.Exit(1)
			}
			generated++
		}
	}
	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing %s: %v\n", *outputPath, err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d verses in %d chapters: %s\n", generated, *numChapters, *outputPath)
}

// randomVerse strings together 3 to 12 words.
func randomVerse(rng *rand.Rand, chapter, id int) document {
	n := 3 + rng.Intn(10)
	arabic := make([]string, n)
	latin := make([]string, n)
	for i := range arabic {
		w := words[rng.Intn(len(words))]
		arabic[i], latin[i] = w.arabic, w.latin
	}
	return document{
		ID:              id,
		Chapter:         chapter,
		Text:            strings.Join(arabic, " "),
		Transliteration: strings.Join(latin, " "),
	}
}
