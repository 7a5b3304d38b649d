//go:build cgo_sqlite

package sqlite

// Registers the cgo driver under the name "sqlite3" for builds that prefer
// it over the pure-Go driver. Select it with NewWithDriver(path, "sqlite3").
import _ "github.com/mattn/go-sqlite3"
