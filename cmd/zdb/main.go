// Command zdb compiles and runs SQL templates.
package main

import (
	"os"

	"github.com/zdbsql/zdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
