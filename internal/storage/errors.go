package storage

import "fmt"

// StorageError represents a storage-specific error with a code and message.
// Codes mirror the domain error codes to avoid a circular import.
type StorageError struct {
	Code    string
	Message string
}

const (
	codeInvalid  = "invalid"
	codeNotFound = "not_found"
)

func (e *StorageError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for classification by callers.
func (e *StorageError) ErrorCode() string {
	return e.Code
}

var (
	// ErrS3CredentialsRequired is returned when S3 credentials are missing.
	ErrS3CredentialsRequired = &StorageError{Code: codeInvalid, Message: "S3 credentials are required"}

	// ErrS3BucketRequired is returned when the S3 bucket name is missing.
	ErrS3BucketRequired = &StorageError{Code: codeInvalid, Message: "S3 bucket name is required"}
)

// ErrArtifactNotFound creates an error for a missing artifact.
func ErrArtifactNotFound(key string) error {
	return &StorageError{
		Code:    codeNotFound,
		Message: fmt.Sprintf("artifact not found: %s", key),
	}
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown storage provider: %s", provider),
	}
}
