package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// resolve returns the SearchError in err's chain, wrapping plain errors as
// internal ones.
func resolve(err error) *SearchError {
	if se, ok := As(err); ok {
		return se
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForUser renders err as a paragraph: message, suggestion, then code.
// Plain errors are returned as their message.
func FormatForUser(err error) string {
	if err == nil {
		return ""
	}
	se, ok := As(err)
	if !ok {
		return err.Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&b, "\nSuggestion: %s\n", se.Suggestion)
	}
	fmt.Fprintf(&b, "\n[%s]", se.Code)
	return b.String()
}

// FormatForCLI renders err for stderr.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	se := resolve(err)

	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", se.Message)
	if se.Suggestion != "" {
		fmt.Fprintf(&b, "  Hint: %s\n", se.Suggestion)
	}
	fmt.Fprintf(&b, "  Code: %s\n", se.Code)
	return b.String()
}

type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   Category          `json:"category"`
	Severity   Severity          `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
}

// FormatJSON encodes err as a JSON object. A nil error encodes as null.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return []byte("null"), nil
	}
	se := resolve(err)
	je := jsonError{
		Code:       se.Code,
		Message:    se.Message,
		Category:   se.Category,
		Severity:   se.Severity,
		Details:    se.Details,
		Suggestion: se.Suggestion,
	}
	if se.Cause != nil {
		je.Cause = se.Cause.Error()
	}
	return json.Marshal(je)
}

// LogAttrs flattens err into slog key-value pairs. Details become
// detail_<key> attributes.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}
	se, ok := As(err)
	if !ok {
		return []any{"error", err.Error()}
	}

	attrs := []any{"error_code", se.Code, "error", se.Message, "category", string(se.Category)}
	if se.Cause != nil {
		attrs = append(attrs, "cause", se.Cause.Error())
	}
	for k, v := range se.Details {
		attrs = append(attrs, "detail_"+k, v)
	}
	return attrs
}
