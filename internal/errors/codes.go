// Package errors provides structured error handling for ragcore.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index artifact and disk errors
//   - 3XX: Embedding provider errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates artifact, file and disk errors.
	CategoryIO Category = "IO"
	// CategoryProvider indicates embedding provider errors.
	CategoryProvider Category = "PROVIDER"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates the artifact cannot be used at all.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed.
	SeverityError Severity = "ERROR"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_101_CONFIG_INVALID"

	// Artifact errors (200-299)
	ErrCodeIndexNotFound   = "ERR_201_INDEX_NOT_FOUND"
	ErrCodeCorruptArtifact = "ERR_205_CORRUPT_ARTIFACT"
	ErrCodeSchemaVersion   = "ERR_207_SCHEMA_VERSION"

	// Provider errors (300-399)
	ErrCodeEmbeddingProvider    = "ERR_302_EMBEDDING_PROVIDER"
	ErrCodeRetrievalUnavailable = "ERR_303_RETRIEVAL_UNAVAILABLE"

	// Validation errors (400-499)
	ErrCodeUnsupportedMethod = "ERR_401_UNSUPPORTED_METHOD"
	ErrCodeDimensionMismatch = "ERR_402_DIMENSION_MISMATCH"
	ErrCodeInvalidInput      = "ERR_403_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeInternal    = "ERR_501_INTERNAL"
	ErrCodeIndexFailed = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "401" from "ERR_401_UNSUPPORTED_METHOD"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryProvider
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptArtifact, ErrCodeSchemaVersion:
		return SeverityFatal
	}
	return SeverityError
}
