package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopware/phpflow/internal/ast"
	"github.com/shopware/phpflow/internal/config"
	"github.com/shopware/phpflow/internal/project"
	"github.com/shopware/phpflow/internal/symbols"
)

func main() {
	log.SetFlags(0)

	// Get the project root from command line or use current directory
	projectRoot := "."
	if len(os.Args) > 1 {
		projectRoot = os.Args[1]
	}

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	files, err := project.Scan(absRoot, cfg)
	if err != nil {
		log.Fatalf("Failed to scan project: %v", err)
	}
	fmt.Printf("Collecting symbols of %d PHP files...\n", len(files))

	var classes []*symbols.Class
	var functions []*symbols.Function
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		file, err := ast.Parse(src)
		if file == nil {
			log.Printf("Skipping %s: %v", path, err)
			continue
		}
		collected := symbols.Collect(path, file)
		classes = append(classes, collected.Classes...)
		functions = append(functions, collected.Functions...)
	}

	fmt.Printf("Found %d classes and %d functions in total\n", len(classes), len(functions))

	sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	for _, class := range classes {
		rel, _ := filepath.Rel(absRoot, class.Path)
		fmt.Printf("\n%s %s (%s:%d)\n", class.Kind, class.Name, rel, class.Line)
		if class.Parent != "" {
			fmt.Printf("  extends %s\n", class.Parent)
		}
		for _, iface := range class.Interfaces {
			fmt.Printf("  implements %s\n", iface)
		}
		for _, name := range sortedKeys(class.Properties) {
			prop := class.Properties[name]
			fmt.Printf("  property $%s: %s\n", prop.Name, orMixed(prop.Type))
		}
		for _, name := range sortedKeys(class.Methods) {
			method := class.Methods[name]
			fmt.Printf("  method %s(%d params): %s\n", method.Name, len(method.Params), orMixed(method.ReturnType))
		}
	}

	sort.Slice(functions, func(i, j int) bool { return functions[i].Name < functions[j].Name })
	if len(functions) > 0 {
		fmt.Println("\nFunctions:")
	}
	for _, fn := range functions {
		fmt.Printf("  %s(%d params): %s\n", fn.Name, len(fn.Params), orMixed(fn.ReturnType))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orMixed(typ string) string {
	if typ == "" {
		return "mixed"
	}
	return typ
}
