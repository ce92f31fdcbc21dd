package zimgraph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/zimgraph/internal/search"
	"github.com/hupe1980/zimgraph/model"
	"github.com/hupe1980/zimgraph/persistence"
	"github.com/hupe1980/zimgraph/zim"
)

var (
	// ErrNotFound is returned when an article or key is not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed query arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("graph closed")

	// ErrSessionMismatch is returned when loaded artifacts belong to
	// another archive or to each other inconsistently.
	ErrSessionMismatch = errors.New("session does not match archive")
)

// ErrUnknownKey indicates a key that was never interned.
//
// It matches ErrNotFound with errors.Is.
type ErrUnknownKey struct {
	Key model.Key
}

func (e *ErrUnknownKey) Error() string {
	return fmt.Sprintf("unknown key: %d", e.Key)
}

func (e *ErrUnknownKey) Unwrap() error { return ErrNotFound }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, zim.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, zim.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, search.ErrInvalidArgument):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, persistence.ErrArchiveMismatch),
		errors.Is(err, persistence.ErrDigestMismatch):
		return fmt.Errorf("%w: %w", ErrSessionMismatch, err)
	}

	return err
}
