package main

import (
	"os"

	"github.com/blacktop/go-termplay/cmd/termplay/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
