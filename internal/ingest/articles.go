// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest loads articles and their enrichment artifacts into the
// store: a CSV of article metadata, plus JSONL files of embedding
// vectors, entity mentions, and cluster assignments produced by the
// upstream NLP batch.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// Stats holds counts from an ingest run.
type Stats struct {
	Inserted int
	Skipped  int
	Errors   int
}

// Total returns the number of rows processed.
func (s Stats) Total() int {
	return s.Inserted + s.Skipped + s.Errors
}

// acceptedDateLayouts, tried in order, for dates as they appear in
// upstream CSV exports.
var acceptedDateLayouts = []string{
	"2006-01-02",
	"1/2/06",
	"1/2/2006",
	"1-2-2006",
	"2/1/2006",
}

// NormalizeDate parses a CSV date in any accepted layout and returns the
// canonical YYYY-MM-DD form.
func NormalizeDate(s string) (types.Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return types.DateOf(t), nil
		}
	}
	return types.Date{}, fmt.Errorf("unrecognized date %q", s)
}

// OutletFromURL derives the outlet name from an article URL's host,
// dropping a leading www.
func OutletFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

// Articles reads a CSV with Title, Summary, URL, Date columns and inserts
// each row, skipping duplicates by URL. Malformed rows are counted and
// the run continues. Progress and per-row errors go to w.
func Articles(ctx context.Context, st *store.Store, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return stats, fmt.Errorf("reading CSV header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"title", "url", "date"} {
		if _, ok := col[required]; !ok {
			return stats, fmt.Errorf("CSV is missing required column %q", required)
		}
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			stats.Errors++
			fmt.Fprintf(w, "line %d: %v\n", line, err)
			continue
		}

		field := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		date, err := NormalizeDate(field("date"))
		if err != nil {
			stats.Errors++
			fmt.Fprintf(w, "line %d: %v\n", line, err)
			continue
		}
		title := field("title")
		articleURL := field("url")
		if title == "" || articleURL == "" {
			stats.Errors++
			fmt.Fprintf(w, "line %d: missing title or url\n", line)
			continue
		}

		_, inserted, err := st.InsertArticle(ctx, types.Article{
			Title:   title,
			Summary: field("summary"),
			URL:     articleURL,
			Outlet:  OutletFromURL(articleURL),
			Date:    date,
		})
		if err != nil {
			stats.Errors++
			fmt.Fprintf(w, "line %d: %v\n", line, err)
			continue
		}
		if inserted {
			stats.Inserted++
		} else {
			stats.Skipped++
		}
	}

	fmt.Fprintf(w, "articles: %d inserted, %d skipped, %d errors\n",
		stats.Inserted, stats.Skipped, stats.Errors)
	return stats, nil
}
