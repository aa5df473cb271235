// The main package for the auto-sitemap executable.
package main

import (
	"github.com/rssblue/auto-sitemap/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
