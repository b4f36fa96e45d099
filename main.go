package main

import (
	"log"
	"os"

	"github.com/shopware/phpflow/internal/lsp"
)

func main() {
	log.SetFlags(0)
	server := lsp.NewServer()

	if err := server.Start(os.Stdin, os.Stdout); err != nil {
		log.Fatalf("LSP server error: %v", err)
	}
}
