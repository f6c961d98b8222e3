package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/noah-isme/rentflow-api/internal/repository"
	"github.com/noah-isme/rentflow-api/pkg/config"
)

func main() {
	_ = godotenv.Load()

	open := func(ctx context.Context) (repository.SnapshotStore, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return repository.OpenSnapshotStore(ctx, cfg, zap.NewNop())
	}

	if err := newRootCmd(open).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
