package exitcodes

// Exit codes for the filedeck binaries.
// A batch in which some entries failed still exits Success; the counts are
// reported on stdout.
const (
	Success         = 0 // Successful execution
	InvalidConfig   = 2 // Configuration file or flags invalid
	SafetyViolation = 3 // Every attempted entry was refused by the safety guard
	RuntimeError    = 4 // Runtime error (journal unavailable, bad output stream)
)
