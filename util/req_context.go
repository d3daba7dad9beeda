package util

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ReqContext returns a context cancelled on SIGTERM/SIGINT/SIGHUP, used
// to stop in-flight bridge operations promptly on shutdown.
func ReqContext() context.Context {
	ctx, done := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 2)
	go func() {
		<-sigChan
		done()
	}()
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	return ctx
}
