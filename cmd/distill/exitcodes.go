package main

// Exit codes for scripted callers.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (bad config, backend or model mismatch)
	ExitDataError   = 3 // Data error (unreadable source, malformed matrix, unknown location)
)
