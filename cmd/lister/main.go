package main

import (
	"os"

	"github.com/JonMunkholm/lister/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
