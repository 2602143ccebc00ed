package main

import (
	"fmt"
	"os"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
