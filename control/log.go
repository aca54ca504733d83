// control/log.go
//
// Ambient diagnostic logging, gated behind a package-level Debug flag rather
// than routed through a structured logger, matching the way a fallback or
// warning path elsewhere in this codebase reaches for log.Printf directly
// instead of threading a logger interface everywhere.

package control

import "log"

// Debug gates ambient diagnostic logging. It defaults to false so library
// use stays silent; zeroipc.New sets it from Config.EnableDebug (Open leaves
// it unchanged).
var Debug bool

// Logf writes a diagnostic line through the stdlib logger when Debug is set.
func Logf(format string, args ...any) {
	if Debug {
		log.Printf(format, args...)
	}
}
