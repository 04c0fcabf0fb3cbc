package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/windlayout/internal/store"
)

var (
	storeKind string
	dataDir   string
)

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&storeKind, "store", store.KindFS, `Run storage backend: fs, sqlite, or "" to disable`)
	cmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Base directory for stored runs")
}

func openStore(ctx context.Context) (store.Store, error) {
	s, err := store.NewStore(ctx, storeKind, dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return s, nil
}
