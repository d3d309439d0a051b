// Package mcp exposes the verse search engine as a Model Context Protocol server.
package mcp

import (
	"context"
	"errors"
	"fmt"

	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

// JSON-RPC error codes returned by the tools. The -3200x range is
// server-defined.
const (
	ErrCodeCorpusUnavailable = -32001
	ErrCodeEmbeddingFailed   = -32002
	ErrCodeTimeout           = -32003 // deadline exceeded or canceled

	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError is a JSON-RPC error as sent to the client.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// NewInvalidParamsError reports a bad tool argument.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError reports an unknown tool name.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Tool '%s' not found.", name)}
}

// searchCodes maps SearchError codes that have a dedicated JSON-RPC code.
// Other validation errors become invalid params; the rest are internal.
var searchCodes = map[string]int{
	aerrors.ErrCodeEmbeddingFailed: ErrCodeEmbeddingFailed,
	aerrors.ErrCodeFileNotFound:    ErrCodeCorpusUnavailable,
	aerrors.ErrCodeFilePermission:  ErrCodeCorpusUnavailable,
	aerrors.ErrCodeCorpusCorrupt:   ErrCodeCorpusUnavailable,
}

// MapError converts err to the error a tool returns. An MCPError anywhere
// in the chain is returned as is. Messages of plain errors are not leaked.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}

	if se, ok := aerrors.As(err); ok {
		message := se.Message
		if se.Suggestion != "" {
			message += " " + se.Suggestion
		}
		code, ok := searchCodes[se.Code]
		switch {
		case ok:
		case se.Category == aerrors.CategoryValidation:
			code = ErrCodeInvalidParams
		default:
			code = ErrCodeInternalError
		}
		return &MCPError{Code: code, Message: message}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}
