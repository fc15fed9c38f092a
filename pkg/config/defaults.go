package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "parkhub"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultCurrency = "RUB"

	// Any session shorter than the minimum billable unit is charged as one
	// full unit. This is the documented rounding policy, not hidden rounding.
	DefaultMinBillableMinutes = 60

	DefaultMaxTopUpAmount = "50000.00"

	DefaultSpotLockTTL = 10 * time.Second

	DefaultIdempotencyTTL = 24 * time.Hour

	DefaultPaginationLimit = 100
)
