// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/meshintel/newsgraph/pkg/types"
)

// InsertArticle inserts an article, returning its id. Duplicate URLs are
// not errors: the returned bool is false and the id is zero when the row
// was ignored.
func (s *Store) InsertArticle(ctx context.Context, a types.Article) (int64, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles (title, summary, url, outlet, date)
		 VALUES (?, ?, ?, ?, ?)`,
		a.Title, a.Summary, a.URL, a.Outlet, a.Date.String(),
	)
	if err != nil {
		return 0, false, fmt.Errorf("inserting article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// ArticleCount returns the number of stored articles.
func (s *Store) ArticleCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM articles`).Scan(&n)
	return n, err
}

// ArticleDates returns every article's raw date string keyed by id.
// Callers parse and skip malformed values.
func (s *Store) ArticleDates(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, date FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("querying article dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[int64]string)
	for rows.Next() {
		var id int64
		var date string
		if err := rows.Scan(&id, &date); err != nil {
			return nil, err
		}
		dates[id] = date
	}
	return dates, rows.Err()
}

// ArticleTitles returns every article's title keyed by id.
func (s *Store) ArticleTitles(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("querying article titles: %w", err)
	}
	defer rows.Close()

	titles := make(map[int64]string)
	for rows.Next() {
		var id int64
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, err
		}
		titles[id] = title
	}
	return titles, rows.Err()
}

// ArticleVector pairs an article's text with its embedding vector.
type ArticleVector struct {
	ID      int64
	Title   string
	Summary string
	Vector  []float32
}

// ArticlesWithVectors returns all articles that have an embedding, in id
// order, with their vectors decoded.
func (s *Store) ArticlesWithVectors(ctx context.Context) ([]ArticleVector, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, COALESCE(a.summary, ''), e.vec
		FROM articles a
		INNER JOIN embeddings e ON a.id = e.article_id
		ORDER BY a.id`)
	if err != nil {
		return nil, fmt.Errorf("querying articles with vectors: %w", err)
	}
	defer rows.Close()

	var result []ArticleVector
	for rows.Next() {
		var av ArticleVector
		var blob []byte
		if err := rows.Scan(&av.ID, &av.Title, &av.Summary, &blob); err != nil {
			return nil, err
		}
		av.Vector = blobToVector(blob)
		result = append(result, av)
	}
	return result, rows.Err()
}

// SaveEmbedding stores an article's embedding vector, replacing any
// previous one.
func (s *Store) SaveEmbedding(ctx context.Context, articleID int64, vec []float32) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO embeddings (article_id, vec) VALUES (?, ?)`,
		articleID, vectorToBlob(vec),
	)
	if err != nil {
		return fmt.Errorf("saving embedding for article %d: %w", articleID, err)
	}
	return nil
}

// EmbeddingCount returns the number of stored embeddings.
func (s *Store) EmbeddingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM embeddings`).Scan(&n)
	return n, err
}

// vectorToBlob encodes a float32 vector as little-endian bytes, the same
// layout the upstream embedding pipeline writes.
func vectorToBlob(vec []float32) []byte {
	buf := new(bytes.Buffer)
	for _, f := range vec {
		binary.Write(buf, binary.LittleEndian, math.Float32bits(f))
	}
	return buf.Bytes()
}

// blobToVector decodes a little-endian float32 vector.
func blobToVector(blob []byte) []float32 {
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vec[i] = math.Float32frombits(bits)
	}
	return vec
}

// SetArticleCluster records the upstream cluster assignment for an article.
func (s *Store) SetArticleCluster(ctx context.Context, articleID, clusterID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET cluster_id = ? WHERE id = ?`, clusterID, articleID)
	return err
}

// SearchHit is one full-text match over article title and summary.
type SearchHit struct {
	Article types.Article
	Rank    float64
}

// SearchArticles runs an FTS5 MATCH over titles and summaries, best
// match first.
func (s *Store) SearchArticles(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if !s.fts {
		return nil, ErrSearchUnavailable
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.summary, a.url, a.outlet, a.date, bm25(articles_fts)
		FROM articles_fts
		JOIN articles a ON a.id = articles_fts.rowid
		WHERE articles_fts MATCH ?
		ORDER BY bm25(articles_fts)
		LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		var summary, outlet sql.NullString
		var rawDate string
		if err := rows.Scan(&h.Article.ID, &h.Article.Title, &summary, &h.Article.URL, &outlet, &rawDate, &h.Rank); err != nil {
			return nil, err
		}
		h.Article.Summary = summary.String
		h.Article.Outlet = outlet.String
		if h.Article.Date, err = types.ParseDate(rawDate); err != nil {
			return nil, fmt.Errorf("article %d: bad date %q: %w", h.Article.ID, rawDate, err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// SetArticleUMAP records the upstream 2-D projection for an article.
func (s *Store) SetArticleUMAP(ctx context.Context, articleID int64, x, y float64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET umap_x = ?, umap_y = ? WHERE id = ?`, x, y, articleID)
	return err
}

// UpsertCluster inserts or updates a cluster row.
func (s *Store) UpsertCluster(ctx context.Context, c types.Cluster) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clusters (id, label, size, score) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			label=excluded.label, size=excluded.size, score=excluded.score`,
		c.ID, c.Label, c.Size, c.Score,
	)
	if err != nil {
		return fmt.Errorf("upserting cluster %d: %w", c.ID, err)
	}
	return nil
}

// ClusterIDs returns all cluster ids.
func (s *Store) ClusterIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM clusters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying clusters: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClusterArticleCount counts a cluster's articles with date >= from and,
// when to is non-zero, date < to.
func (s *Store) ClusterArticleCount(ctx context.Context, clusterID int64, from, to types.Date) (int, error) {
	var n int
	var err error
	if to.IsZero() {
		err = s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM articles WHERE cluster_id = ? AND date >= ?`,
			clusterID, from.String(),
		).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM articles WHERE cluster_id = ? AND date >= ? AND date < ?`,
			clusterID, from.String(), to.String(),
		).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("counting cluster %d articles: %w", clusterID, err)
	}
	return n, nil
}

// UpsertEntity inserts an entity if it does not exist and returns its id.
func (s *Store) UpsertEntity(ctx context.Context, name string, typ types.EntityType) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM entities WHERE name = ? AND type = ?`, name, string(typ),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up entity %q: %w", name, err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (name, type) VALUES (?, ?)`, name, string(typ))
	if err != nil {
		return 0, fmt.Errorf("inserting entity %q: %w", name, err)
	}
	return res.LastInsertId()
}

// LinkEntity records that an article mentions an entity.
func (s *Store) LinkEntity(ctx context.Context, m types.EntityMention) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO article_entities (article_id, entity_id, weight)
		 VALUES (?, ?, ?)`,
		m.ArticleID, m.EntityID, m.Weight,
	)
	if err != nil {
		return fmt.Errorf("linking entity %d to article %d: %w", m.EntityID, m.ArticleID, err)
	}
	return nil
}

// SharedEntityIDs returns the ids of entities mentioned by both articles,
// ascending.
func (s *Store) SharedEntityIDs(ctx context.Context, a, b int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x.entity_id
		FROM article_entities x
		INNER JOIN article_entities y ON x.entity_id = y.entity_id
		WHERE x.article_id = ? AND y.article_id = ?
		ORDER BY x.entity_id`, a, b)
	if err != nil {
		return nil, fmt.Errorf("querying shared entities: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MentionedEntity is an entity with its distinct-article mention count
// inside a detection window.
type MentionedEntity struct {
	ID       int64
	Name     string
	Type     types.EntityType
	Mentions int
}

// EntitiesMentionedSince returns entities mentioned by at least one
// article dated on or after from, with distinct-article counts.
func (s *Store) EntitiesMentionedSince(ctx context.Context, from types.Date) ([]MentionedEntity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.name, COALESCE(e.type, 'OTHER'), COUNT(DISTINCT ae.article_id)
		FROM entities e
		INNER JOIN article_entities ae ON e.id = ae.entity_id
		INNER JOIN articles a ON ae.article_id = a.id
		WHERE a.date >= ?
		GROUP BY e.id, e.name, e.type
		ORDER BY e.id`, from.String())
	if err != nil {
		return nil, fmt.Errorf("querying mentioned entities: %w", err)
	}
	defer rows.Close()

	var result []MentionedEntity
	for rows.Next() {
		var me MentionedEntity
		var typ string
		if err := rows.Scan(&me.ID, &me.Name, &typ, &me.Mentions); err != nil {
			return nil, err
		}
		me.Type = types.EntityType(typ)
		result = append(result, me)
	}
	return result, rows.Err()
}

// EntityMentionsBefore counts an entity's mentions in articles dated
// strictly before the given date.
func (s *Store) EntityMentionsBefore(ctx context.Context, entityID int64, before types.Date) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM article_entities ae
		INNER JOIN articles a ON ae.article_id = a.id
		WHERE ae.entity_id = ? AND a.date < ?`,
		entityID, before.String(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting prior mentions for entity %d: %w", entityID, err)
	}
	return n, nil
}
