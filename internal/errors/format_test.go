package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	// Given: a SearchError
	err := New(ErrCodeFileNotFound, "corpus 'quran.json' not found", nil)

	// When: formatting for user
	result := FormatForUser(err)

	// Then: contains message and trailing code
	assert.Contains(t, result, "corpus 'quran.json' not found")
	assert.Contains(t, result, "[ERR_201_FILE_NOT_FOUND]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	err := New(ErrCodeCorpusCorrupt, "record 3 has no text", nil).
		WithSuggestion("Every record needs a non-empty \"text\" field")

	result := FormatForUser(err)

	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "non-empty")
}

func TestFormatForUser_StandardError(t *testing.T) {
	assert.Equal(t, "something went wrong", FormatForUser(errors.New("something went wrong")))
	assert.Empty(t, FormatForUser(nil))
}

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "fuzziness must be within [0, 1]", nil).
		WithSuggestion("Set search.fuzziness to a value such as 0.12")

	result := FormatForCLI(err)

	assert.Contains(t, result, "Error: fuzziness must be within [0, 1]")
	assert.Contains(t, result, "Hint: Set search.fuzziness")
	assert.Contains(t, result, "Code: ERR_102_CONFIG_INVALID")
}

func TestFormatForCLI_WrapsStandardError(t *testing.T) {
	result := FormatForCLI(errors.New("disk on fire"))

	assert.Contains(t, result, "disk on fire")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	// Given: an error with details and cause
	err := New(ErrCodeDuplicateID, "duplicate id 7", errors.New("seen at record 2")).
		WithDetail("id", "7")

	// When: formatting as JSON
	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	// Then: fields are present
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeDuplicateID, got["code"])
	assert.Equal(t, "VALIDATION", got["category"])
	assert.Equal(t, "seen at record 2", got["cause"])
	assert.Equal(t, map[string]any{"id": "7"}, got["details"])
}

func TestLogAttrs_FlattensDetails(t *testing.T) {
	err := New(ErrCodeCorpusCorrupt, "bad line", nil).WithDetail("line", "4")

	attrs := LogAttrs(err)

	assert.Contains(t, attrs, "error_code")
	assert.Contains(t, attrs, ErrCodeCorpusCorrupt)
	assert.Contains(t, attrs, "detail_line")
	assert.Equal(t, []any{"error", "plain"}, LogAttrs(errors.New("plain")))
	assert.Nil(t, LogAttrs(nil))
}
