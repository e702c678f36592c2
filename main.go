package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/23f3002873/llm-analysis-quiz/cmd"
	"github.com/23f3002873/llm-analysis-quiz/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}
