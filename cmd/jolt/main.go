package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/teranos/jolt/cmd/jolt/commands"
	"github.com/teranos/jolt/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		// --log-json streams get the failure as an entry too
		if logger.JSONOutput {
			logger.Errorw("command failed", logger.FieldError, err.Error())
		}
		logger.Cleanup()
		commands.PrintError(os.Stderr, err, commands.ErrorColor())
		os.Exit(1)
	}
	logger.Cleanup()
}
