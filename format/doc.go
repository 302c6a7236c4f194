// Package format holds the display helpers shared by the CLI and callers
// rendering suv data: HTML text escaping and local date formatting.
package format
