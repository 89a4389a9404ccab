// Package pagination implements the --limit, --offset, --page, --page-size
// and --sort flags shared by the list commands.
package pagination
