package ops

import (
	"database/sql"
	"time"

	tserrors "github.com/tagsearch/tagsearch/tagsearch/errors"
)

// Post is one result row, shaped from the posts table projection.
type Post struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Uploader  int64
	Score     int64
	FavCount  int64
	Rating    string
	Source    string
	MD5       string
	FileExt   string
	FileSize  int64
	Width     int64
	Height    int64
	TagString string
	IsDeleted bool
	IsPending bool
	IsFlagged bool
}

// scanPosts drains rows in the fixed column order of the page projection.
func scanPosts(rows *sql.Rows) ([]Post, error) {
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var created, updated int64
		var source, md5, fext sql.NullString
		err := rows.Scan(&p.ID, &created, &updated, &p.Uploader, &p.Score, &p.FavCount,
			&p.Rating, &source, &md5, &fext, &p.FileSize, &p.Width, &p.Height,
			&p.TagString, &p.IsDeleted, &p.IsPending, &p.IsFlagged)
		if err != nil {
			return nil, tserrors.Wrap(tserrors.SQL, "scan post row", err)
		}
		p.CreatedAt = time.UnixMilli(created).UTC()
		p.UpdatedAt = time.UnixMilli(updated).UTC()
		p.Source = source.String
		p.MD5 = md5.String
		p.FileExt = fext.String
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, tserrors.Wrap(tserrors.SQL, "iterate post rows", err)
	}
	return posts, nil
}
