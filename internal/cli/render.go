// Package cli renders engine output for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/inkroot/folio/internal/hierarchy"
	"github.com/inkroot/folio/internal/models"
	"github.com/inkroot/folio/internal/tags"
)

// OutputFormat selects between human-readable text and JSON.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	writeSearchResultsText(w, response)
	return nil
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	cached := ""
	if response.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "\nFound %d results in %dms for %q%s\n\n",
		response.Total, response.QueryTime, response.Query, cached)
	if response.Total == 0 {
		if len(response.Suggestions) > 0 {
			fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(response.Suggestions, ", "))
		}
		return
	}
	for _, result := range response.Results {
		title := result.Title
		if title == "" {
			title = result.DocumentID
		}
		fmt.Fprintf(w, "%3d. %s  (%s)  score %.4f\n", result.Rank, title, result.DocumentID, result.Score)
		if result.Snippet != "" {
			fmt.Fprintf(w, "     %s\n", result.Snippet)
		}
		if result.Path != "" {
			fmt.Fprintf(w, "     in %s\n", result.Path)
		}
		fmt.Fprintln(w)
	}
}

// WriteStatistics writes collection statistics to w in the given format.
func WriteStatistics(w io.Writer, stats *models.Statistics, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "Documents:         %d\n", stats.Documents)
	fmt.Fprintf(w, "Distinct terms:    %d\n", stats.DistinctTerms)
	fmt.Fprintf(w, "Term occurrences:  %d\n", stats.TermOccurrences)
	fmt.Fprintf(w, "Nodes:             %d\n", stats.Nodes)
	fmt.Fprintf(w, "Tags:              %d\n", stats.Tags)
	fmt.Fprintf(w, "Avg doc length:    %.1f terms\n", stats.AverageDocumentLength)
	fmt.Fprintf(w, "Avg tags per doc:  %.2f\n", stats.AverageTagsPerDocument)
	if len(stats.TopTags) > 0 {
		fmt.Fprintln(w, "\nTop tags:")
		for _, tc := range stats.TopTags {
			fmt.Fprintf(w, "  %-24s %d documents\n", tc.Name, tc.Documents)
		}
	}
	if len(stats.SimilarPairs) > 0 {
		fmt.Fprintln(w, "\nMost similar pairs:")
		for _, p := range stats.SimilarPairs {
			fmt.Fprintf(w, "  %s ~ %s  %.3f\n", p.DocumentA, p.DocumentB, p.Similarity)
		}
	}
	return nil
}

// WriteTags writes the tag taxonomy to w, children indented under
// their parents.
func WriteTags(w io.Writer, all []*tags.Tag, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, all)
	}
	fmt.Fprintf(w, "Tags (%d):\n", len(all))
	present := make(map[string]bool, len(all))
	for _, tg := range all {
		present[tg.ID] = true
	}
	children := make(map[string][]*tags.Tag, len(all))
	var roots []*tags.Tag
	for _, tg := range all {
		// Tags whose parent is not in the listing render at the top
		// level rather than disappearing.
		if tg.ParentID != "" && present[tg.ParentID] {
			children[tg.ParentID] = append(children[tg.ParentID], tg)
		} else {
			roots = append(roots, tg)
		}
	}
	for _, tg := range roots {
		writeTagSubtree(w, tg, children, 1)
	}
	return nil
}

func writeTagSubtree(w io.Writer, tag *tags.Tag, children map[string][]*tags.Tag, depth int) {
	line := strings.Repeat("  ", depth) + tag.Name
	if tag.Color != "" {
		line += "  [" + tag.Color + "]"
	}
	fmt.Fprintln(w, line)
	for _, child := range children[tag.ID] {
		writeTagSubtree(w, child, children, depth+1)
	}
}

// WriteTree writes the folder hierarchy to w. Folder names carry a
// trailing slash to tell them apart from document leaves.
func WriteTree(w io.Writer, roots []*models.TreeNode, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, roots)
	}
	if len(roots) == 0 {
		fmt.Fprintln(w, "(empty)")
		return nil
	}
	for _, node := range roots {
		writeTreeNode(w, node, 0)
	}
	return nil
}

func writeTreeNode(w io.Writer, node *models.TreeNode, depth int) {
	name := node.Name
	if node.Type == hierarchy.TypeFolder {
		name += "/"
	}
	fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), name)
	for _, child := range node.Children {
		writeTreeNode(w, child, depth+1)
	}
}
