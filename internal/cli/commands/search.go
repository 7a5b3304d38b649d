package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tagsearch/tagsearch/internal/cliopt"
	"github.com/tagsearch/tagsearch/internal/cliutil"
	"github.com/tagsearch/tagsearch/tagsearch"
)

func RunSearch(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var limit, page int
	var exact, explain bool
	var format string
	fs.IntVar(&limit, "limit", tagsearch.DefaultPageLimit, "page size")
	fs.IntVar(&page, "page", 1, "page number")
	fs.BoolVar(&exact, "exact", false, "force an exact count")
	fs.BoolVar(&explain, "explain", false, "print the executed SQL")
	fs.StringVar(&format, "format", "pretty", "format: pretty|ids|json")
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
	opts.Limit = limit
	opts.Page = page
	opts.ExactCount = exact
	opts.Explain = explain

	start := time.Now()
	res, err := eng.Search(ctx, input, cliutil.UserContext(g), opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printSearch(cliutil.ParseOutputFormat(format), res, time.Since(start))
	return 0
}

func printSearch(format cliutil.OutputFormat, res *tagsearch.Result, dur time.Duration) {
	switch format {
	case cliutil.FormatJSON:
		cliutil.PrintJSON(os.Stdout, res)
	case cliutil.FormatIDs:
		for _, p := range res.Posts {
			fmt.Fprintln(os.Stdout, p.ID)
		}
	default:
		total := "unknown total"
		if res.Total != nil {
			total = humanize.Comma(*res.Total) + " total"
		}
		fmt.Fprintf(os.Stdout, "%d posts (%s) in %dms for %q\n",
			len(res.Posts), total, dur.Milliseconds(), res.Canonical)
		for _, p := range res.Posts {
			fmt.Fprintf(os.Stdout, "- #%d  %s  score:%d  fav:%d  %s  %s\n",
				p.ID, p.Rating, p.Score, p.FavCount,
				humanize.Bytes(uint64(p.FileSize)), truncateTags(p.TagString))
		}
		if res.ExplainSQL != "" {
			fmt.Fprintf(os.Stdout, "\nSQL:\n%s\n", res.ExplainSQL)
		}
	}
}

func truncateTags(s string) string {
	const max = 80
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
