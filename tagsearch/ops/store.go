package ops

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
	"github.com/tagsearch/tagsearch/tagsearch/storage/sqlbuilder"
)

// Store answers the reference-data lookups compilation and counting need:
// wildcard expansion, alias resolution, name-to-id resolution, saved
// searches, and the denormalized counts behind the fast-count paths.
type Store struct {
	db    *sql.DB
	style sqlbuilder.PlaceholderStyle
}

func NewStore(db *sql.DB, style sqlbuilder.PlaceholderStyle) *Store {
	return &Store{db: db, style: style}
}

// ExpandWildcard matches tag names against a '*' pattern, most-used first.
func (s *Store) ExpandWildcard(ctx context.Context, pattern string, limit int) ([]string, error) {
	b := sqlbuilder.New(s.style)
	q := "SELECT name FROM tags WHERE name LIKE " + b.Arg(likePattern(pattern)) +
		" ESCAPE '\\' ORDER BY post_count DESC, name ASC LIMIT " + itoa(limit)
	rows, err := s.db.QueryContext(ctx, q, b.Args()...)
	if err != nil {
		return nil, tserrors.Wrap(tserrors.SQL, "expand wildcard", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, tserrors.Wrap(tserrors.SQL, "expand wildcard", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ResolveTagAliases maps antecedent tag names to their consequents in one
// batch. Names with no alias are absent from the result.
func (s *Store) ResolveTagAliases(ctx context.Context, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	b := sqlbuilder.New(s.style)
	placeholders := make([]string, len(names))
	for i, n := range names {
		placeholders[i] = b.Arg(n)
	}
	q := "SELECT antecedent, consequent FROM tag_aliases WHERE antecedent IN (" +
		strings.Join(placeholders, ", ") + ")"
	rows, err := s.db.QueryContext(ctx, q, b.Args()...)
	if err != nil {
		return nil, tserrors.Wrap(tserrors.SQL, "resolve aliases", err)
	}
	defer rows.Close()

	resolved := make(map[string]string)
	for rows.Next() {
		var from, to string
		if err := rows.Scan(&from, &to); err != nil {
			return nil, tserrors.Wrap(tserrors.SQL, "resolve aliases", err)
		}
		resolved[from] = to
	}
	return resolved, rows.Err()
}

func (s *Store) LookupUserID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, "SELECT id FROM users WHERE name = ", name)
}

func (s *Store) LookupPoolID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, "SELECT id FROM pools WHERE name = ", name)
}

func (s *Store) LookupFavgroupID(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupID(ctx, "SELECT id FROM favgroups WHERE name = ", name)
}

func (s *Store) lookupID(ctx context.Context, prefix, name string) (int64, bool, error) {
	b := sqlbuilder.New(s.style)
	var id int64
	err := s.db.QueryRowContext(ctx, prefix+b.Arg(name), b.Args()...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, tserrors.Wrap(tserrors.SQL, "lookup id", err)
	}
	return id, true, nil
}

// SavedSearchQueries returns the stored query strings under a label; the
// label "all" (or empty) selects every saved search of the user.
func (s *Store) SavedSearchQueries(ctx context.Context, userID int64, label string) ([]string, error) {
	b := sqlbuilder.New(s.style)
	q := "SELECT query FROM saved_searches WHERE user_id = " + b.Arg(userID)
	if label != "" && label != "all" {
		q += " AND label = " + b.Arg(label)
	}
	rows, err := s.db.QueryContext(ctx, q, b.Args()...)
	if err != nil {
		return nil, tserrors.Wrap(tserrors.SQL, "saved searches", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, tserrors.Wrap(tserrors.SQL, "saved searches", err)
		}
		queries = append(queries, raw)
	}
	return queries, rows.Err()
}

// TagPostCount reads the maintained per-tag post count.
func (s *Store) TagPostCount(ctx context.Context, name string) (int64, bool, error) {
	return s.lookupCount(ctx, "SELECT post_count FROM tags WHERE name = ", name)
}

// PoolPostCount reads the maintained pool size by pool name or numeric id.
func (s *Store) PoolPostCount(ctx context.Context, ref string) (int64, bool, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.lookupCount(ctx, "SELECT post_count FROM pools WHERE id = ", id)
	}
	return s.lookupCount(ctx, "SELECT post_count FROM pools WHERE name = ", strings.ToLower(ref))
}

// UserFavCount reads the maintained favorite count by user name or id.
func (s *Store) UserFavCount(ctx context.Context, ref string) (int64, bool, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.lookupCount(ctx, "SELECT fav_count FROM users WHERE id = ", id)
	}
	return s.lookupCount(ctx, "SELECT fav_count FROM users WHERE name = ", strings.ToLower(ref))
}

func (s *Store) lookupCount(ctx context.Context, prefix string, key any) (int64, bool, error) {
	b := sqlbuilder.New(s.style)
	var n int64
	err := s.db.QueryRowContext(ctx, prefix+b.Arg(key), b.Args()...).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, tserrors.Wrap(tserrors.SQL, "lookup count", err)
	}
	return n, true, nil
}

// likePattern turns a '*' wildcard into a LIKE pattern, escaping LIKE
// metacharacters in the literal parts.
func likePattern(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteByte('%')
		case '%', '_', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func itoa(n int) string {
	if n <= 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
