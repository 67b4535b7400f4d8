package main

import (
	"os"
	"runtime/debug"

	"github.com/starnotary/notary/cmd"
	"github.com/starnotary/notary/logx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("MAIN", "node crashed: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	cmd.Execute()
}
