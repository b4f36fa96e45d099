package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopware/phpflow/internal/ast"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/debug_ast/main.go <php_file_path>")
		os.Exit(1)
	}

	filePath := os.Args[1]
	src, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing AST for file: %s\n\n", filePath)

	file, err := ast.Parse(src)
	if file == nil {
		fmt.Printf("Error parsing file: %v\n", err)
		os.Exit(1)
	}
	ast.Dump(os.Stdout, file)

	if err != nil {
		fmt.Println("\nStructural errors:")
		var kindErr *ast.KindError
		for _, e := range unjoin(err) {
			if errors.As(e, &kindErr) {
				fmt.Printf("  %s: expected %s, got %s\n", kindErr.Range, kindErr.Expected, kindErr.Actual)
				continue
			}
			fmt.Printf("  %v\n", e)
		}
	}
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
