package main

import (
	"os"

	"github.com/prayash-yosa/Mindforge-new/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
