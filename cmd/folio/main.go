package main

import (
	"os"

	"github.com/dshills/folio/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
