package main

import (
	"os"

	"github.com/storylint/storylint/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
