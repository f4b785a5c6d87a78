// Package main is the entry point for the freiburg-transit MCP server.
//
// The server speaks the protocol on stdin/stdout, so nothing may be
// printed to stdout here.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"freiburg-transit/internal/config"
	"freiburg-transit/internal/tools"
	"freiburg-transit/internal/transit"
)

func main() {
	// log writes to stderr, keeping stdout free for the protocol.
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Configuration error: ", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Configuration error: ", err)
	}

	service := transit.NewService(cfg.BaseURL, cfg.HTTPTimeout)

	if err := server.ServeStdio(tools.New(service)); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
