package main

import (
	"fmt"
	"os"

	"github.com/creatorlane/discount-agent/cmd/chat/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
