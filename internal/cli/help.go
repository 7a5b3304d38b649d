package cli

import (
	"fmt"
	"io"
)

func PrintRootHelp(w io.Writer) {
	fmt.Fprintln(w, `tagsearch — tag search query engine over a post repository

USAGE
  tagsearch [global flags] <command> [args]

GLOBAL FLAGS
  --backend sqlite|postgres
  --db <file.db>
  --sqlite-driver <name>
  --pg-dsn <dsn>
  --user <id>
  --safe
  --show-deleted
  --tag-limit <n>

COMMANDS
  init                   create the schema
  seed --file <json>     load posts, tags, aliases and users
  search <query>         run one result page
  count <query>          resolve the result count only
  normalize <query>      print the canonical form of a query

Run "tagsearch <command> --help" for details.`)
}
