package cliutil

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tagsearch/tagsearch/internal/cliopt"
	"github.com/tagsearch/tagsearch/tagsearch"
	"github.com/tagsearch/tagsearch/tagsearch/query"
	"github.com/tagsearch/tagsearch/tagsearch/storage"
	"github.com/tagsearch/tagsearch/tagsearch/storage/postgres"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlite"
)

type OutputFormat string

const (
	FormatPretty OutputFormat = "pretty"
	FormatIDs    OutputFormat = "ids"
	FormatJSON   OutputFormat = "json"
)

func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(s) {
	case FormatPretty, FormatIDs, FormatJSON:
		return OutputFormat(s)
	default:
		return FormatPretty
	}
}

func PrintJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// NewAdapter builds the storage adapter selected by the global flags.
func NewAdapter(g cliopt.GlobalOptions) (storage.Adapter, error) {
	switch strings.ToLower(g.Backend) {
	case "postgres":
		if g.PostgresDSN == "" {
			return nil, fmt.Errorf("--pg-dsn is required for the postgres backend")
		}
		return postgres.New(g.PostgresDSN), nil
	case "", "sqlite":
		if g.SQLiteDriver != "" && g.SQLiteDriver != "sqlite" {
			return sqlite.NewWithDriver(g.SQLitePath, g.SQLiteDriver), nil
		}
		return sqlite.New(g.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", g.Backend)
	}
}

// OpenEngine connects an engine from the global flags.
func OpenEngine(ctx context.Context, g cliopt.GlobalOptions) (*tagsearch.Engine, error) {
	adapter, err := NewAdapter(g)
	if err != nil {
		return nil, err
	}
	return tagsearch.Open(ctx, adapter, tagsearch.DefaultEngineOptions())
}

// UserContext derives the acting-user context from the global flags. The
// CLI is a single-operator tool, so favorites are always viewable.
func UserContext(g cliopt.GlobalOptions) query.UserContext {
	return query.UserContext{
		UserID:           g.UserID,
		Anonymous:        g.AnonymousUser(),
		TagLimit:         g.TagLimit,
		SafeMode:         g.SafeMode,
		HideDeleted:      !g.ShowDeleted,
		CanViewFavorites: func(int64) bool { return true },
	}
}
