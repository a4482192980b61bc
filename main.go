package main

import (
	"fmt"
	"os"

	cmd "github.com/strumscan/scan-server/cmd/strumscan"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
