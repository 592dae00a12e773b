package main

import (
	"fmt"
	"os"

	"github.com/bilalbayram/eventscli/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		if !cli.AlreadyPrinted(err) {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(cli.ExitCodeOf(err))
	}
}
