package providers

import "time"

const (
	// shutdownTimeout is the fallback budget for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// keyLockStripes is the number of mutex stripes guarding like toggles.
	keyLockStripes = 256
)
