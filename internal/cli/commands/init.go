package commands

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tagsearch/tagsearch/internal/cliopt"
	"github.com/tagsearch/tagsearch/internal/cliutil"
)

func RunInit(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(argv); err != nil {
		return 2
	}

	ctx := context.Background()
	eng, err := cliutil.OpenEngine(ctx, g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer eng.Close()

	if err := eng.CreateSchema(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stdout, "schema created")
	return 0
}
