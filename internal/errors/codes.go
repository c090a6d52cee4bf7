// Package errors provides structured error handling for promptdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (durable key-value service)
//   - 3XX: Source errors (content observation / extraction)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates durable storage errors.
	CategoryStorage Category = "STORAGE"
	// CategorySource indicates content-source and extraction errors.
	CategorySource Category = "SOURCE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeStorageOpen    = "ERR_201_STORAGE_OPEN"
	ErrCodeStorageRead    = "ERR_202_STORAGE_READ"
	ErrCodeStorageWrite   = "ERR_203_STORAGE_WRITE"
	ErrCodeStorageLocked  = "ERR_204_STORAGE_LOCKED"
	ErrCodeRecordCorrupt  = "ERR_205_RECORD_CORRUPT"
	ErrCodeStorageClosed  = "ERR_206_STORAGE_CLOSED"

	// Source errors (300-399)
	ErrCodeExtractFailed = "ERR_301_EXTRACT_FAILED"
	ErrCodeParseFailed   = "ERR_302_PARSE_FAILED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeInvalidKey   = "ERR_402_INVALID_KEY"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategorySource
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// retryableCodes are errors where the operation may succeed on a later
// attempt. Persistence writes retry opportunistically on the next mutation.
var retryableCodes = map[string]bool{
	ErrCodeStorageWrite:  true,
	ErrCodeStorageLocked: true,
}

func isRetryableCode(code string) bool {
	return retryableCodes[code]
}
