// Package cli provides shared plumbing for the artvoice command line:
// context-based configuration under ~/.artvoice, output formatting, and
// terminal styles for the live conversation view.
package cli
