// Package main is the cookscabinet command line entry point
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/cookscabinet/cabinet/internal/commands"
)

func main() {
	if err := commands.NewRootCommand(commands.Deps{}).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
