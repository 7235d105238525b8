// Package main is the entry point for the oapi-modelgen CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/oapi-codegen/oapi-modelgen/cmd/oapi-modelgen/internal"
)

func main() {
	if err := internal.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
