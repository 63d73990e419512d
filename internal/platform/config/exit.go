package config

import (
	"fmt"
	"os"
)

// Exit codes used by the command entry points.
const (
	ExitFailure = 1
	// ExitSaveProblem marks an exit caused by unreadable or incompatible save data.
	ExitSaveProblem = 2
)

// Exitf writes a formatted error message to stderr and exits with code.
func Exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
