//
//  Copyright © Manetu Inc. All rights reserved.
//

package compile

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/manetu/iamsearch/pkg/catalog"
	"github.com/manetu/iamsearch/pkg/catalog/parsers"
	"github.com/manetu/iamsearch/pkg/index"
)

// Result represents the outcome of compiling one catalog file.
type Result struct {
	InputFile string
	Roles     int
	Success   bool
	Error     error
}

// Execute runs the compile command with the provided context and CLI command.
func Execute(ctx context.Context, cmd *cli.Command) error {
	files := cmd.StringSlice("catalog")
	if len(files) == 0 {
		return fmt.Errorf("no files specified, use --catalog/-c to specify catalog files to compile")
	}

	outputFile := cmd.String("output")

	results, err := Run(files, outputFile)
	printResults(results, outputFile)
	return err
}

// Run loads and merges the given catalog files, compiles the index, and
// writes the artifact to outputFile.  Catalogs are merged in argument
// order; later files win role name collisions during indexing.
func Run(files []string, outputFile string) ([]Result, error) {
	merged := &catalog.Catalog{}
	results := make([]Result, 0, len(files))
	hasErrors := false

	for _, file := range files {
		c, err := parsers.Load(file)
		if err != nil {
			results = append(results, Result{InputFile: file, Error: err})
			hasErrors = true
			continue
		}
		merged.Roles = append(merged.Roles, c.Roles...)
		merged.Permissions = append(merged.Permissions, c.Permissions...)
		results = append(results, Result{InputFile: file, Roles: len(c.Roles), Success: true})
	}

	if hasErrors {
		return results, fmt.Errorf("compile failed for one or more files")
	}

	if err := index.WriteFile(outputFile, index.Compile(merged)); err != nil {
		return results, err
	}

	return results, nil
}

func printResults(results []Result, outputFile string) {
	fmt.Println("Compile Results:")
	fmt.Println()

	hasErrors := false
	for _, result := range results {
		if result.Success {
			fmt.Printf("✓ %s (%d roles)\n", result.InputFile, result.Roles)
		} else {
			fmt.Printf("✗ %s\n", result.InputFile)
			fmt.Printf("  Error: %s\n", result.Error)
			hasErrors = true
		}
	}

	fmt.Println()
	if !hasErrors {
		fmt.Printf("Successfully compiled %d file(s) → %s\n", len(results), outputFile)
	}
}
