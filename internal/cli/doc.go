// Package cli defines the command-line surface: the cobra command tree,
// flag-to-configuration bridging, and process-level concerns like exit
// codes.
package cli
