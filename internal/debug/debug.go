// Package debug provides debugging utilities gated on the HARDWOODDEBUG
// environment variable.
package debug

import (
	"fmt"
	"os"
	"strings"
)

var enabled = false

func init() {
	for _, arg := range strings.Split(os.Getenv("HARDWOODDEBUG"), ",") {
		if arg == "trace" || arg == "1" {
			enabled = true
		}
	}
}

// Format prints the formatted message to stderr when debugging is enabled.
func Format(format string, args ...interface{}) {
	if enabled {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
