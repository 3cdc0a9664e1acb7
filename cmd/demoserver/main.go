// Command demoserver serves fictional business listings for trying out
// bizaudit locally.
// Usage: go run ./cmd/demoserver [addr]
// Default addr: :9999
//
// Point the extractor at it with
//
//	BIZAUDIT_EXTRACTOR_SEARCH_URL_TEMPLATE=http://localhost:9999/maps/search/{query}
//	BIZAUDIT_EXTRACTOR_DIRECTORY_SEARCH_URL_TEMPLATE=http://localhost:9999/directory/search?q={query}
package main

import (
	"fmt"
	"os"

	"github.com/raysh454/bizaudit/internal/demoserver"
	"github.com/raysh454/bizaudit/internal/logging"
)

func main() {
	cfg := demoserver.DefaultConfig()
	if len(os.Args) > 1 {
		cfg.Addr = os.Args[1]
	}

	logger := logging.NewStdoutLogger("demoserver")
	server := demoserver.NewDemoServer(cfg, logger)
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
