package main

import (
	"os"

	"github.com/spf13/afero"

	"minply.click/internal/cli"
)

func main() {
	os.Exit(cli.RunHistory(os.Args, afero.NewOsFs(), os.Stdout, os.Stderr))
}
