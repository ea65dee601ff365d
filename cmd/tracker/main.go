package main

import (
	"context"
	"os"
)

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	closeApp()
	if err != nil {
		os.Exit(1)
	}
}
