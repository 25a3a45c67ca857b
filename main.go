// The main package for the kapmirror executable.
package main

import (
	"github.com/alperaydin/kapmirror/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
