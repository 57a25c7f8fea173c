package service

import "errors"

// Service errors. Storage failures surface as *repository.StorageError.
var (
	ErrInvalidInput            = errors.New("URL is required")
	ErrNotFound                = errors.New("short URL not found")
	ErrCodeGenerationExhausted = errors.New("failed to generate unique short code")
)
