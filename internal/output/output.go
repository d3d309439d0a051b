// Package output provides consistent CLI output for search results and status lines.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/ayatsearch/internal/search"
)

// Writer provides formatted output for CLI.
// Icons are used only when writing to a terminal.
type Writer struct {
	out   io.Writer
	icons bool
}

// New creates a Writer that prints plain prefixes instead of icons.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// NewForFile creates a Writer that uses icons when f is a terminal.
func NewForFile(f *os.File) *Writer {
	return &Writer{out: f, icons: IsTerminal(f)}
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Status prints a status message with an icon, or with a plain prefix when
// icons are off. Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

func (w *Writer) pick(icon, plain string) string {
	if w.icons {
		return icon
	}
	return plain
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	w.Status(w.pick("✅", "ok:"), msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status(w.pick("⚠️ ", "warning:"), msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status(w.pick("❌", "error:"), msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints a block with each line indented.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Line prints msg followed by a newline.
func (w *Writer) Line(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// JSON prints v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Results prints ranked verses for query. Each verse is headed by its rank,
// reference, hybrid score and match kind; secondary fields follow indented.
func (w *Writer) Results(query string, results []*search.SearchResult) {
	if len(results) == 0 {
		w.Statusf(w.pick("🔍", "--"), "no verses matched %q", query)
		return
	}

	_, _ = fmt.Fprintf(w.out, "%s (%d)\n", query, len(results))
	for i, r := range results {
		_, _ = fmt.Fprintf(w.out, "%2d. %-8s %.3f %-8s %s\n",
			i+1, Reference(r), r.HybridScore, r.MatchKind, r.Document.Text)
		for _, extra := range []string{r.Document.Transliteration, r.Document.Translation} {
			if extra != "" {
				_, _ = fmt.Fprintf(w.out, "    %s\n", extra)
			}
		}
	}
}

// Reference formats a verse as chapter:id, or #id when unchaptered.
func Reference(r *search.SearchResult) string {
	if r.Document.Chapter > 0 {
		return fmt.Sprintf("%d:%d", r.Document.Chapter, r.Document.ID)
	}
	return fmt.Sprintf("#%d", r.Document.ID)
}
