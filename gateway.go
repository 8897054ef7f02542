package sheetboard

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// Gateway performs the primitive sheet operations for the stores.
//
// A Gateway built with a nil Backend is degraded for its whole lifetime:
// reads return no rows, writes report false and no backend call is made.
// Errors from a configured Backend are logged and turned into the same
// safe defaults, so callers cannot tell the two situations apart.
type Gateway struct {
	backend Backend
	logger  *slog.Logger
	warn    sync.Once
}

// NewGateway creates a gateway over backend. Pass a nil backend when the
// spreadsheet is not configured.
func NewGateway(backend Backend, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gateway{
		backend: backend,
		logger:  logger,
	}
}

// Degraded reports whether the gateway runs without a backend
func (g *Gateway) Degraded() bool {
	return g.backend == nil
}

// available returns false (after warning once) when the gateway is degraded
func (g *Gateway) available() bool {
	if g.backend != nil {
		return true
	}
	g.warn.Do(func() {
		g.logger.Warn("spreadsheet backend not configured; reads return empty data and writes are skipped")
	})
	return false
}

// ReadRange returns the rows of rng, or an empty result on any failure
func (g *Gateway) ReadRange(ctx context.Context, rng Range) [][]string {
	if !g.available() {
		return [][]string{}
	}

	rows, err := g.backend.Values(ctx, rng)
	if err != nil {
		g.logger.Error("failed to read sheet", "range", rng.String(), "error", err)
		return [][]string{}
	}
	if rows == nil {
		return [][]string{}
	}
	return rows
}

// AppendRow appends values after the last row of rng
func (g *Gateway) AppendRow(ctx context.Context, rng Range, values []string) bool {
	if !g.available() {
		return false
	}

	if err := g.backend.Append(ctx, rng, values); err != nil {
		g.logger.Error("failed to append row", "range", rng.String(), "error", err)
		return false
	}
	return true
}

// UpdateRow overwrites the row span addressed by rng
func (g *Gateway) UpdateRow(ctx context.Context, rng Range, values []string) bool {
	if !g.available() {
		return false
	}

	if err := g.backend.Update(ctx, rng, values); err != nil {
		g.logger.Error("failed to update row", "range", rng.String(), "error", err)
		return false
	}
	return true
}

// DeleteRow removes the data row at a 0-based positional index.
// When the sheet id cannot be resolved the delete is still issued
// against sheet id 0.
func (g *Gateway) DeleteRow(ctx context.Context, e Entity, index int) bool {
	if !g.available() {
		return false
	}

	sheetID := g.ResolveSheetID(ctx, e)
	start := int64(index) + 1
	if err := g.backend.DeleteRows(ctx, sheetID, start, start+1); err != nil {
		g.logger.Error("failed to delete row",
			"sheet", e.Sheet, "sheetId", sheetID, "index", index, "error", err)
		return false
	}
	return true
}

// ResolveSheetID returns the numeric id of the entity's tab, or 0 when it
// is unknown or the backend cannot be reached.
func (g *Gateway) ResolveSheetID(ctx context.Context, e Entity) int64 {
	if !g.available() {
		return 0
	}

	id, found, err := g.backend.SheetID(ctx, e.Sheet)
	if err != nil {
		g.logger.Error("failed to get sheet id", "sheet", e.Sheet, "error", err)
		return 0
	}
	if !found {
		g.logger.Warn("sheet not found", "sheet", e.Sheet)
		return 0
	}
	return id
}
