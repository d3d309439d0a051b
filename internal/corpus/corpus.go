// Package corpus loads verse collections from JSON or JSON Lines files.
package corpus

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
	"github.com/Aman-CERP/ayatsearch/internal/store"
)

// maxLineBytes bounds one JSON Lines record.
const maxLineBytes = 4 * 1024 * 1024

// record mirrors store.Document with a required id.
type record struct {
	ID              *int   `json:"id"`
	Text            string `json:"text"`
	TextClean       string `json:"text_clean"`
	Transliteration string `json:"transliteration"`
	Translation     string `json:"translation"`
	Commentary      string `json:"commentary"`
	Chapter         int    `json:"chapter"`
}

// Load reads documents from path. The format is detected from the first
// non-space byte: '[' for a JSON array, anything else for JSON Lines.
func Load(path string) ([]store.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		code := aerrors.ErrCodeFileNotFound
		if os.IsPermission(err) {
			code = aerrors.ErrCodeFilePermission
		}
		return nil, aerrors.New(code, "failed to open corpus", err).
			WithDetail("path", path).
			WithSuggestion("Set corpus.path in .ayatsearch.yaml or pass --corpus")
	}
	defer f.Close()

	docs, err := Read(f)
	if err != nil {
		if se, ok := aerrors.As(err); ok {
			se.WithDetail("path", path)
		}
		return nil, err
	}
	return docs, nil
}

// Read decodes documents from r and checks that IDs are unique within each
// chapter.
func Read(r io.Reader) ([]store.Document, error) {
	br := bufio.NewReader(r)

	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []store.Document{}, nil
	}
	if err != nil {
		return nil, aerrors.New(aerrors.ErrCodeCorpusCorrupt, "failed to read corpus", err)
	}

	var records []record
	if first == '[' {
		records, err = readArray(br)
	} else {
		records, err = readLines(br)
	}
	if err != nil {
		return nil, err
	}

	docs := make([]store.Document, 0, len(records))
	type key struct{ chapter, id int }
	seen := make(map[key]int, len(records))
	for i, rec := range records {
		if rec.ID == nil {
			return nil, corrupt(i+1, "missing id")
		}
		k := key{rec.Chapter, *rec.ID}
		if prev, dup := seen[k]; dup {
			return nil, corrupt(i+1, fmt.Sprintf("duplicate id %d in chapter %d (first at record %d)", *rec.ID, rec.Chapter, prev))
		}
		seen[k] = i + 1
		docs = append(docs, store.Document{
			ID:              *rec.ID,
			Text:            rec.Text,
			TextClean:       rec.TextClean,
			Transliteration: rec.Transliteration,
			Translation:     rec.Translation,
			Commentary:      rec.Commentary,
			Chapter:         rec.Chapter,
		})
	}
	return docs, nil
}

func readArray(r io.Reader) ([]record, error) {
	var records []record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&records); err != nil {
		return nil, aerrors.New(aerrors.ErrCodeCorpusCorrupt, "invalid JSON array", err)
	}
	if dec.More() {
		return nil, aerrors.New(aerrors.ErrCodeCorpusCorrupt, "trailing data after JSON array", nil)
	}
	return records, nil
}

func readLines(r io.Reader) ([]record, error) {
	var records []record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, aerrors.New(aerrors.ErrCodeCorpusCorrupt, fmt.Sprintf("invalid JSON on line %d", line), err).
				WithDetail("line", fmt.Sprint(line))
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, aerrors.New(aerrors.ErrCodeCorpusCorrupt, "failed to read corpus", err)
	}
	return records, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func corrupt(recordNum int, msg string) error {
	return aerrors.New(aerrors.ErrCodeCorpusCorrupt, fmt.Sprintf("record %d: %s", recordNum, msg), nil).
		WithDetail("record", fmt.Sprint(recordNum))
}

// FilterChapter returns the documents of chapter n, in order. Chapter 0
// returns docs unchanged.
func FilterChapter(docs []store.Document, n int) []store.Document {
	if n == 0 {
		return docs
	}
	out := make([]store.Document, 0)
	for _, d := range docs {
		if d.Chapter == n {
			out = append(out, d)
		}
	}
	return out
}

// Chapters returns the distinct chapter numbers in docs, ascending.
func Chapters(docs []store.Document) []int {
	seen := make(map[int]struct{})
	for _, d := range docs {
		seen[d.Chapter] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
