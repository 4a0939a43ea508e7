package main

import (
	"context"
	"fmt"
	"os"

	"github.com/courierapi/courier/internal/cli"
)

var (
	executeCmd  = cli.Execute
	mapExitCode = cli.ExitCode
	terminate   = os.Exit
)

func run(args []string) int {
	ctx := context.Background()
	if err := executeCmd(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return mapExitCode(err)
	}
	return 0
}

func main() {
	terminate(run(os.Args[1:]))
}
