package ops

import (
	"context"
	"strings"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

// InsertPost writes one post row plus its tag memberships, split from the
// space-separated tag string. Fixture and seeding path, not a bulk loader.
func (s *Store) InsertPost(ctx context.Context, p Post) error {
	b := sqlbuilder.New(s.style)
	cols := []string{
		b.Arg(p.ID), b.Arg(p.CreatedAt.UnixMilli()), b.Arg(p.UpdatedAt.UnixMilli()),
		b.Arg(p.Uploader), b.Arg(p.Score), b.Arg(p.FavCount), b.Arg(p.Rating),
		b.Arg(nullable(p.Source)), b.Arg(nullable(p.MD5)), b.Arg(nullable(p.FileExt)),
		b.Arg(p.FileSize), b.Arg(p.Width), b.Arg(p.Height), b.Arg(p.TagString),
		b.Arg(p.IsDeleted), b.Arg(p.IsPending), b.Arg(p.IsFlagged),
	}
	q := "INSERT INTO posts (id, created_at, updated_at, uploader_id, score, fav_count, " +
		"rating, source, md5, file_ext, file_size, image_width, image_height, tag_string, " +
		"is_deleted, is_pending, is_flagged) VALUES (" + strings.Join(cols, ", ") + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert post", err)
	}

	for _, name := range strings.Fields(p.TagString) {
		tb := sqlbuilder.New(s.style)
		tq := "INSERT INTO post_tags (post_id, tag_name) VALUES (" +
			tb.Arg(p.ID) + ", " + tb.Arg(strings.ToLower(name)) + ")"
		if _, err := s.db.ExecContext(ctx, tq, tb.Args()...); err != nil {
			return tserrors.Wrap(tserrors.SQL, "insert post tag", err)
		}
	}
	return nil
}

// PutMetrics writes the aggregate row for a post.
func (s *Store) PutMetrics(ctx context.Context, postID int64, counts map[string]int64) error {
	names := []string{"post_id"}
	b := sqlbuilder.New(s.style)
	vals := []string{b.Arg(postID)}
	for _, col := range []string{
		"tag_count", "tag_count_general", "tag_count_artist", "tag_count_character",
		"tag_count_copyright", "tag_count_meta", "comment_count", "deleted_comment_count",
		"note_count", "flag_count", "child_count", "pool_count",
	} {
		if n, ok := counts[col]; ok {
			names = append(names, col)
			vals = append(vals, b.Arg(n))
		}
	}
	q := "INSERT INTO post_metrics (" + strings.Join(names, ", ") + ") VALUES (" +
		strings.Join(vals, ", ") + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert post metrics", err)
	}
	return nil
}

// PutTag records a tag with its maintained post count.
func (s *Store) PutTag(ctx context.Context, name string, category int, postCount int64) error {
	b := sqlbuilder.New(s.style)
	q := "INSERT INTO tags (name, category, post_count) VALUES (" +
		b.Arg(strings.ToLower(name)) + ", " + b.Arg(category) + ", " + b.Arg(postCount) + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert tag", err)
	}
	return nil
}

// PutAlias records an antecedent-to-consequent tag alias.
func (s *Store) PutAlias(ctx context.Context, antecedent, consequent string) error {
	b := sqlbuilder.New(s.style)
	q := "INSERT INTO tag_aliases (antecedent, consequent) VALUES (" +
		b.Arg(strings.ToLower(antecedent)) + ", " + b.Arg(strings.ToLower(consequent)) + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert alias", err)
	}
	return nil
}

// PutUser records a user row for name resolution and favorite counting.
func (s *Store) PutUser(ctx context.Context, id int64, name string, favCount int64, curator bool) error {
	b := sqlbuilder.New(s.style)
	q := "INSERT INTO users (id, name, fav_count, is_curator) VALUES (" +
		b.Arg(id) + ", " + b.Arg(strings.ToLower(name)) + ", " + b.Arg(favCount) + ", " + b.Arg(curator) + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert user", err)
	}
	return nil
}

// PutPool records a pool and its ordered member posts.
func (s *Store) PutPool(ctx context.Context, id int64, name string, postIDs []int64) error {
	b := sqlbuilder.New(s.style)
	q := "INSERT INTO pools (id, name, post_count) VALUES (" +
		b.Arg(id) + ", " + b.Arg(strings.ToLower(name)) + ", " + b.Arg(int64(len(postIDs))) + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert pool", err)
	}
	for i, pid := range postIDs {
		pb := sqlbuilder.New(s.style)
		pq := "INSERT INTO pool_posts (pool_id, post_id, position) VALUES (" +
			pb.Arg(id) + ", " + pb.Arg(pid) + ", " + pb.Arg(i) + ")"
		if _, err := s.db.ExecContext(ctx, pq, pb.Args()...); err != nil {
			return tserrors.Wrap(tserrors.SQL, "insert pool post", err)
		}
	}
	return nil
}

// PutFavorite records one user favorite.
func (s *Store) PutFavorite(ctx context.Context, userID, postID int64) error {
	b := sqlbuilder.New(s.style)
	q := "INSERT INTO favorites (user_id, post_id) VALUES (" +
		b.Arg(userID) + ", " + b.Arg(postID) + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert favorite", err)
	}
	return nil
}

// PutSavedSearch records a labeled saved search for a user.
func (s *Store) PutSavedSearch(ctx context.Context, userID int64, label, rawQuery string) error {
	b := sqlbuilder.New(s.style)
	q := "INSERT INTO saved_searches (user_id, label, query) VALUES (" +
		b.Arg(userID) + ", " + b.Arg(strings.ToLower(label)) + ", " + b.Arg(rawQuery) + ")"
	if _, err := s.db.ExecContext(ctx, q, b.Args()...); err != nil {
		return tserrors.Wrap(tserrors.SQL, "insert saved search", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
