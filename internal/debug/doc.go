// Package debug provides optional file-based debug logging.
//
// When the HELIX_DEBUG environment variable is set to a file path, or Init
// is called (helix compile --debug), debug messages are appended to that
// file. Otherwise, logging is a no-op. Every line carries the run id so the
// output of concurrent compiles can be told apart.
package debug
