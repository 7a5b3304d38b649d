package sqlite

// Mirrors the postgres schema with SQLite storage classes. Timestamps are
// epoch milliseconds throughout.
const ddlBase = `
CREATE TABLE IF NOT EXISTS posts (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL,
    uploader_id       INTEGER NOT NULL DEFAULT 0,
    approver_id       INTEGER,
    score             INTEGER NOT NULL DEFAULT 0,
    up_score          INTEGER NOT NULL DEFAULT 0,
    down_score        INTEGER NOT NULL DEFAULT 0,
    fav_count         INTEGER NOT NULL DEFAULT 0,
    rating            TEXT    NOT NULL DEFAULT 'q',
    source            TEXT,
    md5               TEXT,
    file_ext          TEXT,
    file_size         INTEGER NOT NULL DEFAULT 0,
    image_width       INTEGER NOT NULL DEFAULT 0,
    image_height      INTEGER NOT NULL DEFAULT 0,
    tag_string        TEXT    NOT NULL DEFAULT '',
    parent_id         INTEGER,
    has_children      BOOLEAN NOT NULL DEFAULT FALSE,
    is_deleted        BOOLEAN NOT NULL DEFAULT FALSE,
    is_pending        BOOLEAN NOT NULL DEFAULT FALSE,
    is_flagged        BOOLEAN NOT NULL DEFAULT FALSE,
    is_appealed       BOOLEAN NOT NULL DEFAULT FALSE,
    last_commented_at INTEGER,
    last_noted_at     INTEGER
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at);
CREATE INDEX IF NOT EXISTS idx_posts_score ON posts (score);
CREATE UNIQUE INDEX IF NOT EXISTS idx_posts_md5 ON posts (md5);
CREATE INDEX IF NOT EXISTS idx_posts_parent_id ON posts (parent_id);

CREATE TABLE IF NOT EXISTS post_metrics (
    post_id               INTEGER PRIMARY KEY REFERENCES posts (id),
    tag_count             INTEGER NOT NULL DEFAULT 0,
    tag_count_general     INTEGER NOT NULL DEFAULT 0,
    tag_count_artist      INTEGER NOT NULL DEFAULT 0,
    tag_count_character   INTEGER NOT NULL DEFAULT 0,
    tag_count_copyright   INTEGER NOT NULL DEFAULT 0,
    tag_count_meta        INTEGER NOT NULL DEFAULT 0,
    comment_count         INTEGER NOT NULL DEFAULT 0,
    deleted_comment_count INTEGER NOT NULL DEFAULT 0,
    note_count            INTEGER NOT NULL DEFAULT 0,
    flag_count            INTEGER NOT NULL DEFAULT 0,
    child_count           INTEGER NOT NULL DEFAULT 0,
    pool_count            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS media_assets (
    post_id  INTEGER PRIMARY KEY REFERENCES posts (id),
    duration REAL
);

CREATE TABLE IF NOT EXISTS tags (
    name       TEXT PRIMARY KEY,
    category   INTEGER NOT NULL DEFAULT 0,
    post_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tag_aliases (
    antecedent TEXT PRIMARY KEY,
    consequent TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS post_tags (
    post_id  INTEGER NOT NULL,
    tag_name TEXT    NOT NULL,
    PRIMARY KEY (post_id, tag_name)
);
CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags (tag_name, post_id);

CREATE TABLE IF NOT EXISTS users (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    name              TEXT NOT NULL UNIQUE,
    fav_count         INTEGER NOT NULL DEFAULT 0,
    is_curator        BOOLEAN NOT NULL DEFAULT FALSE,
    private_favorites BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS favorites (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    post_id INTEGER NOT NULL,
    UNIQUE (user_id, post_id)
);
CREATE INDEX IF NOT EXISTS idx_favorites_post ON favorites (post_id);

CREATE TABLE IF NOT EXISTS pools (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    post_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS pool_posts (
    pool_id  INTEGER NOT NULL,
    post_id  INTEGER NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (pool_id, post_id)
);

CREATE TABLE IF NOT EXISTS favgroups (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL,
    creator_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS favgroup_posts (
    favgroup_id INTEGER NOT NULL,
    post_id     INTEGER NOT NULL,
    position    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (favgroup_id, post_id)
);

CREATE TABLE IF NOT EXISTS comments (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id    INTEGER NOT NULL,
    creator_id INTEGER NOT NULL,
    is_deleted BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments (post_id);

CREATE TABLE IF NOT EXISTS notes (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id    INTEGER NOT NULL,
    creator_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_post ON notes (post_id);

CREATE TABLE IF NOT EXISTS post_flags (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    post_id    INTEGER NOT NULL,
    creator_id INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_post_flags_post ON post_flags (post_id);

CREATE TABLE IF NOT EXISTS post_votes (
    post_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    score   INTEGER NOT NULL,
    PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS post_disapprovals (
    post_id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    reason  TEXT    NOT NULL DEFAULT '',
    PRIMARY KEY (post_id, user_id)
);

CREATE TABLE IF NOT EXISTS commentaries (
    post_id                INTEGER PRIMARY KEY REFERENCES posts (id),
    original_title         TEXT NOT NULL DEFAULT '',
    original_description   TEXT NOT NULL DEFAULT '',
    translated_title       TEXT NOT NULL DEFAULT '',
    translated_description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS saved_searches (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    label   TEXT    NOT NULL,
    query   TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_searches_user ON saved_searches (user_id);
`
