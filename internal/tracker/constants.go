package tracker

import "time"

// GlobalLimitWindowSize is how many pending randomness requests one pass picks up.
const GlobalLimitWindowSize = 50

const (
	DefaultPollInterval = 2 * time.Second
	RetryAttempts       = 5
	RetryDelay          = 500 * time.Millisecond
)
