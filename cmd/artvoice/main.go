// Package main provides the artvoice CLI tool.
//
// Usage:
//
//	artvoice [flags] <command> [args]
//
// Commands:
//
//	talk     - Hold a live voice conversation about an artwork
//	resolve  - Resolve and print an artwork context
//	config   - Configuration management
//
// Configuration:
//
//	The CLI stores configuration in ~/.artvoice/
//	Use 'artvoice config' commands to manage gallery contexts.
package main

import (
	"fmt"
	"os"

	"github.com/docentlab/artvoice/cmd/artvoice/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
