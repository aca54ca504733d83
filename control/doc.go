// Package control holds the process-local (non-shared-memory) ambient
// state every process attached to a segment keeps for itself: debug-logging
// configuration, process-local tuning knobs, and metrics about this
// process's own container operations.
//
// Nothing here is written into the shared segment — two processes attached
// to the same Table each keep an independent ConfigStore/MetricsRegistry.
// Cross-process state belongs in a Table entry, not here.
package control
