package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tagsearch/tagsearch/internal/cliopt"
	"github.com/tagsearch/tagsearch/internal/cliutil"
)

func RunNormalize(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("normalize", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
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

	canonical, err := eng.Normalize(ctx, input, cliutil.UserContext(g))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintln(os.Stdout, canonical)
	return 0
}
