// catalogwatch keeps a live view of the parts catalog in the terminal.
//
// It loads a page of offers (or one product) from the catalog service,
// subscribes to the update stream and re-renders whenever the view changes.
//
// Usage:
//
//	catalogwatch list --config configs/catalogwatch.example.yaml --brand Bosch
//	catalogwatch detail BRK-001
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
