package main

import (
	"fmt"
	"os"
)

func main() {
	os.Exit(Execute())
}

func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
