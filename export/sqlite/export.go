// Package sqlite exports a link graph to a SQLite database so it can be
// explored with SQL:
//
//	articles(key INTEGER PRIMARY KEY, path TEXT, has_page INTEGER)
//	links(source INTEGER, position INTEGER, target INTEGER, weight REAL)
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"os"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/zimgraph/model"
)

const schema = `
CREATE TABLE articles (
	key INTEGER PRIMARY KEY,
	path TEXT NOT NULL,
	has_page INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX idx_articles_path ON articles(path);

CREATE TABLE links (
	source INTEGER NOT NULL,
	position INTEGER NOT NULL,
	target INTEGER NOT NULL,
	weight REAL NOT NULL,
	PRIMARY KEY (source, position)
) WITHOUT ROWID;
CREATE INDEX idx_links_target ON links(target);
`

// Stats counts exported rows.
type Stats struct {
	Articles int
	Pages    int
	Links    int
}

// Export writes vocab and pages to a new database at path, replacing any
// existing file. Everything is written in one transaction.
func Export(ctx context.Context, path string, vocab []string, pages iter.Seq2[model.Key, *model.Page]) (Stats, error) {
	var stats Stats

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return stats, fmt.Errorf("sqlite: remove %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return stats, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = MEMORY"); err != nil {
		return stats, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return stats, fmt.Errorf("sqlite: create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer func() { _ = tx.Rollback() }()

	if stats, err = write(ctx, tx, vocab, pages); err != nil {
		return stats, err
	}
	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("sqlite: commit: %w", err)
	}
	return stats, nil
}

func write(ctx context.Context, tx *sql.Tx, vocab []string, pages iter.Seq2[model.Key, *model.Page]) (Stats, error) {
	var stats Stats

	article, err := tx.PrepareContext(ctx, `INSERT INTO articles (key, path) VALUES (?, ?)`)
	if err != nil {
		return stats, err
	}
	defer article.Close()

	for k, path := range vocab {
		if _, err := article.ExecContext(ctx, k, path); err != nil {
			return stats, fmt.Errorf("sqlite: insert article %q: %w", path, err)
		}
		stats.Articles++
	}

	mark, err := tx.PrepareContext(ctx, `UPDATE articles SET has_page = 1 WHERE key = ?`)
	if err != nil {
		return stats, err
	}
	defer mark.Close()

	link, err := tx.PrepareContext(ctx, `INSERT INTO links (source, position, target, weight) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return stats, err
	}
	defer link.Close()

	for k, p := range pages {
		if int(k) >= len(vocab) {
			return stats, fmt.Errorf("sqlite: page key %d outside vocabulary of %d", k, len(vocab))
		}
		if _, err := mark.ExecContext(ctx, k); err != nil {
			return stats, err
		}
		stats.Pages++
		for i, l := range p.Links {
			if _, err := link.ExecContext(ctx, k, i, l.Target, float64(l.Weight)); err != nil {
				return stats, fmt.Errorf("sqlite: insert link %d->%d: %w", k, l.Target, err)
			}
			stats.Links++
		}
	}
	return stats, nil
}
