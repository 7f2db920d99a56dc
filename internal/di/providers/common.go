package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// dbPingInterval is the delay between connection attempts while waiting for the database.
	dbPingInterval = time.Second
)
