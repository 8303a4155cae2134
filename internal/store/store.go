// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store provides SQLite persistence for articles, embeddings, the
// similarity graph, storylines, and alerts. All SQL lives here; engines in
// internal/graph, internal/storyline, and internal/detect work against
// these methods. Writes are transactional per logical unit (one article's
// edge set, one storyline's row set, one alert).
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSearchUnavailable is returned by SearchArticles when the binary was
// built without the sqlite_fts5 tag and the FTS5 module is missing.
var ErrSearchUnavailable = errors.New("full-text search unavailable: rebuild with -tags sqlite_fts5")

// Store manages the newsgraph SQLite database.
type Store struct {
	db  *sql.DB
	fts bool
}

// Open opens or creates the SQLite database at dbPath and ensures the
// schema exists. Parent directories are created as needed.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			summary TEXT,
			url TEXT UNIQUE NOT NULL,
			outlet TEXT,
			date TEXT NOT NULL,
			cluster_id INTEGER,
			storyline_id INTEGER,
			umap_x REAL,
			umap_y REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_cluster ON articles(cluster_id)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_storyline ON articles(storyline_id)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			article_id INTEGER PRIMARY KEY REFERENCES articles(id) ON DELETE CASCADE,
			vec BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS similarities (
			src_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			dst_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			cosine REAL NOT NULL,
			shared_terms TEXT,
			shared_entities TEXT,
			tier TEXT,
			PRIMARY KEY (src_id, dst_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_similarities_src ON similarities(src_id)`,
		`CREATE INDEX IF NOT EXISTS idx_similarities_dst ON similarities(dst_id)`,
		`CREATE TABLE IF NOT EXISTS clusters (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT,
			size INTEGER,
			score REAL
		)`,
		`CREATE TABLE IF NOT EXISTS entities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			type TEXT CHECK(type IN ('PERSON','ORG','GPE','LOC','OTHER'))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_name_type ON entities(name, type)`,
		`CREATE TABLE IF NOT EXISTS article_entities (
			article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			entity_id INTEGER NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
			weight REAL,
			PRIMARY KEY (article_id, entity_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_article_entities_entity ON article_entities(entity_id)`,
		`CREATE TABLE IF NOT EXISTS storylines (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			momentum_score REAL NOT NULL DEFAULT 0,
			first_date TEXT NOT NULL,
			last_date TEXT NOT NULL,
			article_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS storyline_articles (
			storyline_id INTEGER NOT NULL REFERENCES storylines(id) ON DELETE CASCADE,
			article_id INTEGER NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
			tier TEXT NOT NULL,
			sequence_order INTEGER NOT NULL,
			PRIMARY KEY (storyline_id, article_id)
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_type TEXT NOT NULL,
			payload TEXT,
			triggered_at TIMESTAMP NOT NULL,
			description TEXT NOT NULL,
			severity TEXT NOT NULL DEFAULT 'medium',
			acknowledged INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_type ON alerts(alert_type)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_triggered ON alerts(triggered_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table over article text, kept in sync by triggers.
	// go-sqlite3 includes the FTS5 module only under the sqlite_fts5
	// build tag; without it the store still opens, with search disabled.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE articles_fts USING fts5(
				title, summary, content='articles', content_rowid='id',
				tokenize='porter unicode61'
			)`,
			`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
				INSERT INTO articles_fts(rowid, title, summary) VALUES (new.id, new.title, new.summary);
			END`,
			`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, title, summary) VALUES('delete', old.id, old.title, old.summary);
			END`,
			`CREATE TRIGGER articles_au AFTER UPDATE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, title, summary) VALUES('delete', old.id, old.title, old.summary);
				INSERT INTO articles_fts(rowid, title, summary) VALUES (new.id, new.title, new.summary);
			END`,
		}
		for i, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				if i == 0 && strings.Contains(err.Error(), "no such module: fts5") {
					return nil
				}
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	s.fts = true

	return nil
}

// begin starts a transaction.
func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return tx, nil
}
