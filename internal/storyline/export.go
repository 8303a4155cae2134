// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package storyline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/meshintel/newsgraph/internal/store"
	"github.com/meshintel/newsgraph/pkg/types"
)

// ExportMember is one article inside an exported storyline.
type ExportMember struct {
	ArticleID int64      `json:"article_id" yaml:"article_id"`
	Title     string     `json:"title" yaml:"title"`
	URL       string     `json:"url" yaml:"url"`
	Outlet    string     `json:"outlet,omitempty" yaml:"outlet,omitempty"`
	Date      types.Date `json:"date" yaml:"date"`
	Tier      types.Tier `json:"tier" yaml:"tier"`
	Sequence  int        `json:"sequence" yaml:"sequence"`
}

// ExportStoryline is one storyline with its members in reading order.
type ExportStoryline struct {
	types.Storyline `yaml:",inline"`
	Members         []ExportMember `json:"members" yaml:"members"`
}

// ExportDoc is the root of an export file.
type ExportDoc struct {
	Storylines []ExportStoryline `json:"storylines" yaml:"storylines"`
}

// Export writes every storyline with its ordered members to w in the
// requested format, "yaml" or "json".
func Export(ctx context.Context, st *store.Store, format string, w io.Writer) error {
	storylines, err := st.Storylines(ctx)
	if err != nil {
		return err
	}

	doc := ExportDoc{Storylines: make([]ExportStoryline, 0, len(storylines))}
	for _, s := range storylines {
		members, err := st.Members(ctx, s.ID)
		if err != nil {
			return err
		}
		es := ExportStoryline{Storyline: s, Members: make([]ExportMember, 0, len(members))}
		for _, m := range members {
			es.Members = append(es.Members, ExportMember{
				ArticleID: m.ArticleID,
				Title:     m.Title,
				URL:       m.URL,
				Outlet:    m.Outlet,
				Date:      m.Date,
				Tier:      m.Tier,
				Sequence:  m.SequenceOrder,
			})
		}
		doc.Storylines = append(doc.Storylines, es)
	}

	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding export: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (want yaml or json)", format)
	}
}
