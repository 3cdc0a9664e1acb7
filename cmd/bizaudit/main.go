// Command bizaudit audits the public listing of a local business.
package main

import (
	"fmt"
	"os"

	"github.com/raysh454/bizaudit/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
