package main

// Exit codes shared by all commands.
const (
	ExitSuccess           = 0 // Success
	ExitError             = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError       = 2 // Configuration error (missing workspace, invalid config)
	ExitDataError         = 3 // Data error (malformed corpus, validation failure)
	ExitOracleUnavailable = 4 // Embedding provider not reachable
	ExitModelNotFound     = 5 // Embedding model not found
)
