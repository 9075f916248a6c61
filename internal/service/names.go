package service

import (
	"fmt"
	"strings"
)

// ValidateName checks that name can be used as a single path component:
// a username (namespace) or a stored file name.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidFilename)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	}
	return nil
}

// CleanUploadName reduces a client-supplied upload name to its last path
// component (some browsers send "C:\dir\file.txt") and validates the result.
// The name is otherwise kept as sent, surrounding spaces included.
func CleanUploadName(name string) (string, error) {
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
