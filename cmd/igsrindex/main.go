// Command igsrindex builds IGSR search documents from the relational database
// and publishes them to a document store.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, newApp(connect)))
}

// execute runs the CLI and maps the outcome onto a process exit code.
func execute(args []string, stdout, stderr io.Writer, a *app) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	code := exitCode(err)
	switch {
	case errors.Is(err, context.Canceled):
		_, _ = fmt.Fprintf(stderr, "Error: run cancelled: %v\n", err)
	case err != nil:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		if code == exitUsage {
			_, _ = fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.CommandPath())
		}
	}
	return code
}
