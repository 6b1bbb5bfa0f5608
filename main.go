package main

import (
	"fmt"
	"os"

	"github.com/barnhand/barnhand/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "barnhand:", err)
		os.Exit(1)
	}
}
