package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/uyouii/cnv-segment/app"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := app.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}

	stop()
	_ = zap.L().Sync()
	os.Exit(code)
}
