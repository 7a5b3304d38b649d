package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/tagsearch/tagsearch/internal/cliopt"
	"github.com/tagsearch/tagsearch/internal/cliutil"
	"github.com/tagsearch/tagsearch/tagsearch"
)

func RunCount(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var exact bool
	fs.BoolVar(&exact, "exact", false, "force an exact count")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	input := strings.Join(fs.Args(), " ")

	ctx := context.Background()
	eng, err := cliutil.OpenEngine(ctx, g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer eng.Close()

	opts := tagsearch.DefaultSearchOptions()
	opts.ExactCount = exact

	n, known, err := eng.Count(ctx, input, cliutil.UserContext(g), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !known {
		fmt.Fprintln(os.Stdout, "unknown")
		return 0
	}
	fmt.Fprintln(os.Stdout, humanize.Comma(n))
	return 0
}
