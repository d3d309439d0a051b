// Package errors provides the structured error type used across ayatsearch.
//
// Every error carries a code of the form ERR_NNN_NAME. The first digit
// gives the category:
//   - 1NN: configuration and rule files
//   - 2NN: reading the corpus or other files
//   - 4NN: caller input
//   - 5NN: everything else
package errors

import "strings"

// Category groups error codes by their first digit.
type Category string

const (
	CategoryConfig     Category = "CONFIG"
	CategoryIO         Category = "IO"
	CategoryValidation Category = "VALIDATION"
	CategoryInternal   Category = "INTERNAL"
)

// Severity says whether the process can keep serving after the error.
type Severity string

const (
	// SeverityFatal leaves nothing to search; the caller should abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError fails one operation.
	SeverityError Severity = "ERROR"
	// SeverityWarning is degraded operation.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeRulesInvalid   = "ERR_103_RULES_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeCorpusCorrupt  = "ERR_206_CORPUS_CORRUPT"

	// Validation errors (400-499)
	ErrCodeInvalidInput      = "ERR_401_INVALID_INPUT"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeDuplicateID       = "ERR_406_DUPLICATE_ID"
	ErrCodeInvalidTopK       = "ERR_407_INVALID_TOP_K"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeEmbeddingFailed = "ERR_502_EMBEDDING_FAILED"
	ErrCodeSearchFailed    = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed     = "ERR_505_INDEX_FAILED"
)

var categoryByDigit = map[byte]Category{
	'1': CategoryConfig,
	'2': CategoryIO,
	'4': CategoryValidation,
}

// categoryFromCode reads the category digit from code. Malformed codes are
// internal.
func categoryFromCode(code string) Category {
	if len(code) < 7 || !strings.HasPrefix(code, "ERR_") {
		return CategoryInternal
	}
	if c, ok := categoryByDigit[code[4]]; ok {
		return c
	}
	return CategoryInternal
}

// severityFromCode: a corrupt corpus or broken rule table leaves nothing
// to search, so both abort. A missing config file falls back to defaults.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorpusCorrupt, ErrCodeRulesInvalid:
		return SeverityFatal
	case ErrCodeConfigNotFound:
		return SeverityWarning
	default:
		return SeverityError
	}
}
