package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/SymoHTL/CloudCord/internal/app"
)

// @title       CloudCord API
// @version     1.0
// @description Chunked file store on top of Discord attachments
// @BasePath    /
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("build: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run: %v", err)
	}
}
