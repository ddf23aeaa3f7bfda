package auth

import (
	"context"
	"errors"
	"time"

	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

type timeoutVerifier struct {
	next    Verifier
	timeout time.Duration
}

// WithTimeout bounds every call to next. A call that runs out of time
// fails with a TIMEOUT domain error rather than UNAUTHORIZED.
func WithTimeout(next Verifier, timeout time.Duration) Verifier {
	if timeout <= 0 {
		return next
	}
	return &timeoutVerifier{next: next, timeout: timeout}
}

func (v *timeoutVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	identity, err := v.next.Verify(ctx, token)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, domainerrors.ErrTimeout) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTimeout, "token verification timed out")
	}
	return identity, err
}
