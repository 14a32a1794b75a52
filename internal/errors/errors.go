package errors

import (
	"fmt"
	"strings"
)

// RagError is the structured error type for ragcore.
// Every failure of build, load and query surfaces as a *RagError so callers
// can branch on Code (via errors.Is against the sentinels below) instead of
// parsing messages.
type RagError struct {
	// Code is the unique error code (e.g., "ERR_201_INDEX_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Provider, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *RagError) Error() string {
	if e.Cause != nil && !strings.Contains(e.Message, e.Cause.Error()) {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RagError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is(err, ErrIndexNotFound) through any wrapping.
func (e *RagError) Is(target error) bool {
	if t, ok := target.(*RagError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *RagError) WithDetail(key, value string) *RagError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *RagError) WithSuggestion(suggestion string) *RagError {
	e.Suggestion = suggestion
	return e
}

// New creates a new RagError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *RagError {
	return &RagError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a RagError from an existing error.
// The error's message becomes the RagError message.
func Wrap(code string, err error) *RagError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is. They carry only a code; never return them directly.
var (
	ErrUnsupportedMethod    = &RagError{Code: ErrCodeUnsupportedMethod}
	ErrIndexNotFound        = &RagError{Code: ErrCodeIndexNotFound}
	ErrSchemaVersion        = &RagError{Code: ErrCodeSchemaVersion}
	ErrCorruptArtifact      = &RagError{Code: ErrCodeCorruptArtifact}
	ErrEmbeddingProvider    = &RagError{Code: ErrCodeEmbeddingProvider}
	ErrRetrievalUnavailable = &RagError{Code: ErrCodeRetrievalUnavailable}
	ErrDimensionMismatch    = &RagError{Code: ErrCodeDimensionMismatch}
)

// UnsupportedMethodError reports a method name outside the closed set.
func UnsupportedMethodError(method string) *RagError {
	return New(ErrCodeUnsupportedMethod, fmt.Sprintf("unsupported index method %q", method), nil).
		WithDetail("method", method).
		WithSuggestion("use one of: lexical, vector-space, hybrid")
}

// IndexNotFoundError reports that no artifact exists at location.
func IndexNotFoundError(location string, cause error) *RagError {
	return New(ErrCodeIndexNotFound, fmt.Sprintf("no index found at %s", location), cause).
		WithDetail("location", location).
		WithSuggestion("build the index first")
}

// SchemaVersionError reports an artifact written with an unknown schema.
func SchemaVersionError(got, want int) *RagError {
	return New(ErrCodeSchemaVersion, fmt.Sprintf("unsupported artifact schema version %d (supported: %d)", got, want), nil).
		WithDetail("schema_version", fmt.Sprint(got)).
		WithSuggestion("rebuild the index with this version")
}

// CorruptArtifactError reports a decode or consistency failure on load.
func CorruptArtifactError(message string, cause error) *RagError {
	return New(ErrCodeCorruptArtifact, message, cause).
		WithSuggestion("rebuild the index")
}

// EmbeddingProviderError reports a provider failure during a build.
func EmbeddingProviderError(message string, cause error) *RagError {
	return New(ErrCodeEmbeddingProvider, message, cause)
}

// RetrievalUnavailableError reports that a loaded artifact cannot be served
// with the capabilities available at query time.
func RetrievalUnavailableError(message string, cause error) *RagError {
	return New(ErrCodeRetrievalUnavailable, message, cause)
}

// DimensionMismatch is carried as the cause of provider and retrieval errors
// when an embedding has the wrong length.
type DimensionMismatch struct {
	Expected int
	Got      int
}

func (e DimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

// Is lets errors.Is(err, ErrDimensionMismatch) match the cause type.
func (e DimensionMismatch) Is(target error) bool {
	t, ok := target.(*RagError)
	return ok && t.Code == ErrCodeDimensionMismatch
}

// GetCode extracts the error code from the first RagError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	for err != nil {
		if re, ok := err.(*RagError); ok {
			return re.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	if re, ok := err.(*RagError); ok {
		return re.Severity == SeverityFatal
	}
	return false
}
