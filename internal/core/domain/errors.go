package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPathStructure marks a walked path with fewer than the
	// three mandatory Department/Category/Topic segments. Fatal for that
	// file, never retried.
	ErrInvalidPathStructure = errors.New("invalid path structure")

	// ErrNotFound is returned by stores when a natural-key lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrUniqueViolation is the store's distinguishable signal that a
	// conditional insert lost a natural-key race.
	ErrUniqueViolation = errors.New("unique violation")

	// ErrNameConflict marks a globally-unique-name entity already owned
	// by a different parent.
	ErrNameConflict = errors.New("name conflict")

	// ErrRateLimited marks an upstream 429-class rejection.
	ErrRateLimited = errors.New("rate limited")

	// ErrTemporary marks transient failures worth retrying.
	ErrTemporary = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
