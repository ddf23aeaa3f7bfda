package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

// Sentinel errors.
var (
	// ErrInvalidPath is returned for empty paths, empty segments, or
	// segments containing reserved characters.
	ErrInvalidPath = domainerrors.Validation("invalid store path")

	// ErrAbort may be returned from a TransactionFunc to leave the value unchanged.
	ErrAbort = errors.New("store: transaction aborted")

	// ErrTooManyRetries is returned when a transaction keeps conflicting.
	ErrTooManyRetries = domainerrors.Conflict("store transaction retried too many times")
)

// classify maps low-level failures onto domain error kinds so callers can
// tell a slow or unreachable store apart from missing data.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return domainerrors.Wrap(err, domainerrors.CodeTimeout, "store "+op+" timed out")
	case errors.Is(err, context.Canceled):
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "store "+op+" canceled")
	case errors.Is(err, badger.ErrDBClosed), errors.Is(err, badger.ErrBlockedWrites):
		return domainerrors.Wrap(err, domainerrors.CodeUnavailable, "store unavailable")
	default:
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "store "+op+" failed")
	}
}
