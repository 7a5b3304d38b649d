package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/tagsearch/tagsearch/internal/cliopt"
	"github.com/tagsearch/tagsearch/internal/cliutil"
	"github.com/tagsearch/tagsearch/tagsearch/ops"
)

type seedFile struct {
	Posts []struct {
		ID        int64     `json:"id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
		Uploader  int64     `json:"uploader"`
		Score     int64     `json:"score"`
		FavCount  int64     `json:"fav_count"`
		Rating    string    `json:"rating"`
		Source    string    `json:"source"`
		MD5       string    `json:"md5"`
		FileExt   string    `json:"file_ext"`
		FileSize  int64     `json:"file_size"`
		Width     int64     `json:"width"`
		Height    int64     `json:"height"`
		Tags      string    `json:"tags"`
		Deleted   bool      `json:"deleted"`
		Pending   bool      `json:"pending"`
	} `json:"posts"`
	Tags []struct {
		Name      string `json:"name"`
		Category  int    `json:"category"`
		PostCount int64  `json:"post_count"`
	} `json:"tags"`
	Aliases []struct {
		From string `json:"from"`
		To   string `json:"to"`
	} `json:"aliases"`
	Users []struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		FavCount int64  `json:"fav_count"`
		Curator  bool   `json:"curator"`
	} `json:"users"`
	Pools []struct {
		ID    int64   `json:"id"`
		Name  string  `json:"name"`
		Posts []int64 `json:"posts"`
	} `json:"pools"`
	Favorites []struct {
		User int64 `json:"user"`
		Post int64 `json:"post"`
	} `json:"favorites"`
	SavedSearches []struct {
		User  int64  `json:"user"`
		Label string `json:"label"`
		Query string `json:"query"`
	} `json:"saved_searches"`
}

// RunSeed loads a JSON fixture file into the database.
func RunSeed(g cliopt.GlobalOptions, argv []string) int {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var file string
	fs.StringVar(&file, "file", "", "seed JSON file")
	fs.StringVar(&file, "f", "", "seed JSON file")
	if err := fs.Parse(argv); err != nil {
		return 2
	}
	if file == "" {
		fmt.Fprintln(os.Stderr, "missing --file")
		return 2
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", file, err)
		return 1
	}

	ctx := context.Background()
	eng, err := cliutil.OpenEngine(ctx, g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer eng.Close()

	store := eng.Store()
	for _, p := range seed.Posts {
		post := ops.Post{
			ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
			Uploader: p.Uploader, Score: p.Score, FavCount: p.FavCount,
			Rating: p.Rating, Source: p.Source, MD5: p.MD5, FileExt: p.FileExt,
			FileSize: p.FileSize, Width: p.Width, Height: p.Height,
			TagString: p.Tags, IsDeleted: p.Deleted, IsPending: p.Pending,
		}
		if post.UpdatedAt.IsZero() {
			post.UpdatedAt = post.CreatedAt
		}
		if err := store.InsertPost(ctx, post); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for _, t := range seed.Tags {
		if err := store.PutTag(ctx, t.Name, t.Category, t.PostCount); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for _, a := range seed.Aliases {
		if err := store.PutAlias(ctx, a.From, a.To); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for _, u := range seed.Users {
		if err := store.PutUser(ctx, u.ID, u.Name, u.FavCount, u.Curator); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for _, p := range seed.Pools {
		if err := store.PutPool(ctx, p.ID, p.Name, p.Posts); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for _, f := range seed.Favorites {
		if err := store.PutFavorite(ctx, f.User, f.Post); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	for _, s := range seed.SavedSearches {
		if err := store.PutSavedSearch(ctx, s.User, s.Label, s.Query); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}

	fmt.Fprintf(os.Stdout, "seeded %d posts, %d tags, %d users\n",
		len(seed.Posts), len(seed.Tags), len(seed.Users))
	return 0
}
