package service

import "errors"

// Errors returned by the services. Handlers map them to HTTP responses with
// errors.Is; the wrapped detail is for logs only.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccessDenied       = errors.New("access denied")
	ErrNotFound           = errors.New("file not found")
	ErrInvalidFilename    = errors.New("invalid file name")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthenticated    = errors.New("login required")
)
