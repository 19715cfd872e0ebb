package main

import (
	"os"

	"github.com/nhd98z/kyberswap-aggregator-sdk/internal/app"
)

func main() {
	runner := app.NewRunner()
	os.Exit(runner.Run(os.Args[1:]))
}
