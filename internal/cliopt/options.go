package cliopt

import "flag"

// GlobalOptions are parsed once at the CLI root and passed to subcommands.
//
// NOTE: This is a separate package to avoid import cycles between the root
// command router and per-command code.
type GlobalOptions struct {
	Backend      string
	SQLitePath   string
	SQLiteDriver string
	PostgresDSN  string

	// Acting-user context shared by all query commands.
	UserID      int64
	SafeMode    bool
	ShowDeleted bool
	TagLimit    int
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		Backend:      "sqlite",
		SQLitePath:   "tagsearch.db",
		SQLiteDriver: "sqlite",
	}
}

func BindGlobalFlags(fs *flag.FlagSet, g *GlobalOptions) {
	fs.StringVar(&g.Backend, "backend", g.Backend, "backend: sqlite|postgres")

	fs.StringVar(&g.SQLitePath, "db", g.SQLitePath, "sqlite database file path")
	fs.StringVar(&g.SQLiteDriver, "sqlite-driver", g.SQLiteDriver, "registered sqlite driver name")
	fs.StringVar(&g.PostgresDSN, "pg-dsn", g.PostgresDSN, "postgres DSN")

	fs.Int64Var(&g.UserID, "user", g.UserID, "acting user id (0 = anonymous)")
	fs.BoolVar(&g.SafeMode, "safe", g.SafeMode, "safe mode: restrict to rating:s")
	fs.BoolVar(&g.ShowDeleted, "show-deleted", g.ShowDeleted, "do not hide deleted posts")
	fs.IntVar(&g.TagLimit, "tag-limit", g.TagLimit, "per-query term limit (0 = default)")
}

// AnonymousUser reports whether no acting user was given.
func (g GlobalOptions) AnonymousUser() bool { return g.UserID == 0 }
