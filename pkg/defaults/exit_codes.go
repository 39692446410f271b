package defaults

// Exit codes for the CLI.
const (
	ExitSuccess          = 0 // Report generated
	ExitGenerationFailed = 1 // Generation returned a failure result
	ExitUserError        = 2 // Invalid arguments or configuration
	ExitNetworkError     = 3 // Upstream collaborator unreachable
	ExitInternalError    = 4 // Unexpected internal error
)
