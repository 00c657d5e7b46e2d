// Package logx configures taskplan's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller) on stderr,
//     so stdout stays reserved for the rendered report
//   - File output JSON-structured
//   - Repeated warnings throttled per key (see Throttle)
package logx
