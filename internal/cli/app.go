package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ideamans/sheetboard"
	"github.com/ideamans/sheetboard/adapters/excel"
	"github.com/ideamans/sheetboard/adapters/googlesheets"
	"github.com/ideamans/sheetboard/api"
	"github.com/ideamans/sheetboard/internal/config"
)

// app is the process-wide wiring shared by the commands: one config, one
// logger and at most one live backend behind one gateway
type app struct {
	config  *config.Config
	logger  *slog.Logger
	backend sheetboard.Backend // nil when degraded
	gateway *sheetboard.Gateway
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	backend := openBackend(cmd.Context(), cfg, logger)
	return &app{
		config:  cfg,
		logger:  logger,
		backend: backend,
		gateway: sheetboard.NewGateway(backend, logger),
	}, nil
}

// openBackend returns the backend selected by cfg, or nil when none is
// configured or it cannot be opened
func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) sheetboard.Backend {
	switch cfg.Backend() {
	case "workbook":
		backend, err := excel.New(&excel.Config{FilePath: cfg.Workbook})
		if err != nil {
			logger.Error("failed to open workbook", "path", cfg.Workbook, "error", err)
			return nil
		}
		logger.Info("using workbook backend", "path", cfg.Workbook)
		return backend

	case "sheets":
		backend, err := googlesheets.Open(ctx, googlesheets.Config{
			SpreadsheetID:         cfg.SpreadsheetID,
			ServiceAccountKey:     cfg.ServiceAccountKey,
			ServiceAccountKeyFile: cfg.ServiceAccountKeyFile,
			ClientEmail:           cfg.ClientEmail,
			PrivateKey:            cfg.PrivateKey,
		})
		if err != nil {
			logger.Error("failed to open Google Sheets backend", "error", err)
			return nil
		}
		logger.Info("using Google Sheets backend", "spreadsheet", cfg.SpreadsheetID)
		return backend

	default:
		return nil
	}
}

func (a *app) storeOptions() []sheetboard.StoreOption {
	if a.config.SerializeMutations {
		return []sheetboard.StoreOption{sheetboard.WithSerializedMutations()}
	}
	return nil
}

// handlers builds one API handler per entity
func (a *app) handlers() []*api.Handler {
	var out []*api.Handler
	for _, e := range sheetboard.Entities() {
		store := sheetboard.NewStore(a.gateway, e, a.storeOptions()...)
		out = append(out, api.NewHandler(store, a.logger))
	}
	return out
}
