package errors

import (
	stderrors "errors"
	"fmt"
)

// SearchError is the structured error returned by every ayatsearch package.
// The CLI, the MCP tools and the logs all render it from the same fields.
type SearchError struct {
	Code     string // ERR_NNN_NAME
	Message  string
	Category Category
	Severity Severity

	// Details holds context such as the corpus path or line number.
	Details map[string]string
	Cause   error

	// Suggestion tells the user what to change.
	Suggestion string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SearchError) Unwrap() error { return e.Cause }

// Is matches on code, so errors.Is(err, New(ErrCodeDuplicateID, "", nil))
// finds any duplicate-id error in the chain.
func (e *SearchError) Is(target error) bool {
	t, ok := target.(*SearchError)
	return ok && e.Code == t.Code
}

// WithDetail sets a detail and returns e.
func (e *SearchError) WithDetail(key, value string) *SearchError {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the suggestion and returns e.
func (e *SearchError) WithSuggestion(suggestion string) *SearchError {
	e.Suggestion = suggestion
	return e
}

// New returns a SearchError whose category and severity follow from code.
func New(code, message string, cause error) *SearchError {
	return &SearchError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Newf is New with a formatted message and no cause.
func Newf(code, format string, args ...any) *SearchError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Wrap turns err into a SearchError carrying err's message. Nil stays nil.
func Wrap(code string, err error) *SearchError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

func ConfigError(message string, cause error) *SearchError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError reports a file that could not be read.
func IOError(message string, cause error) *SearchError {
	return New(ErrCodeFileNotFound, message, cause)
}

func ValidationError(message string, cause error) *SearchError {
	return New(ErrCodeInvalidInput, message, cause)
}

func InternalError(message string, cause error) *SearchError {
	return New(ErrCodeInternal, message, cause)
}

// As finds the first SearchError in err's chain, including joined errors.
func As(err error) (*SearchError, bool) {
	var se *SearchError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

func IsFatal(err error) bool {
	se, ok := As(err)
	return ok && se.Severity == SeverityFatal
}

// GetCode returns the code of the first SearchError in err's chain, or "".
func GetCode(err error) string {
	if se, ok := As(err); ok {
		return se.Code
	}
	return ""
}

func GetCategory(err error) Category {
	if se, ok := As(err); ok {
		return se.Category
	}
	return ""
}
