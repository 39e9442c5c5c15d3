package fallback

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/yowyob/internal/models"
)

// Suggestion is one autocomplete entry.
type Suggestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Type string `json:"type"`
}

// suggestionDoc is the indexed shape of a dataset record.
type suggestionDoc struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Shop     string `json:"shop"`
	Tags     string `json:"tags"`
	Kind     string `json:"kind"`
}

// SuggestionIndex is a Bleve index over dataset records used for offline autocomplete.
type SuggestionIndex struct {
	mu      sync.Mutex
	index   bleve.Index
	indexed map[string]struct{}
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = true
	for _, f := range []string{"name", "category", "shop", "tags"} {
		docMapping.AddFieldMappingsAt(f, text)
	}
	kind := bleve.NewKeywordFieldMapping()
	kind.Store = true
	docMapping.AddFieldMappingsAt("kind", kind)
	im.AddDocumentMapping("suggestion", docMapping)
	im.DefaultType = "suggestion"
	im.DefaultMapping = docMapping
	return im
}

// NewSuggestionIndex creates or opens an index at path. An empty path keeps the index in memory.
func NewSuggestionIndex(path string) (*SuggestionIndex, error) {
	var (
		index bleve.Index
		err   error
	)
	switch {
	case path == "":
		index, err = bleve.NewMemOnly(newMapping())
	default:
		if _, statErr := os.Stat(path); statErr == nil {
			index, err = bleve.Open(path)
		} else {
			index, err = bleve.New(path, newMapping())
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open suggestion index: %w", err)
	}
	return &SuggestionIndex{index: index, indexed: make(map[string]struct{})}, nil
}

// Rebuild indexes records and removes documents no longer present.
func (s *SuggestionIndex) Rebuild(records []models.SearchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.index.NewBatch()
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.ID == "" {
			continue
		}
		seen[r.ID] = struct{}{}
		doc := suggestionDoc{
			Name:     r.Name,
			Category: r.Category,
			Shop:     r.Shop.Name,
			Tags:     strings.Join(r.Tags, " "),
			Kind:     string(r.Type),
		}
		if err := batch.Index(r.ID, doc); err != nil {
			return fmt.Errorf("failed to index %s: %w", r.ID, err)
		}
	}
	for id := range s.indexed {
		if _, ok := seen[id]; !ok {
			batch.Delete(id)
		}
	}
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply suggestion batch: %w", err)
	}
	s.indexed = seen
	return nil
}

// Suggest returns up to limit record names matching input. Every term but the
// last must match a word (with one edit of typo tolerance); the last term may be a prefix.
func (s *SuggestionIndex) Suggest(ctx context.Context, input string, limit int) ([]Suggestion, error) {
	terms := tokenizeQuery(input)
	if len(terms) == 0 || limit <= 0 {
		return nil, nil
	}
	conj := make([]blevequery.Query, 0, len(terms))
	for i, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(1)
		if i == len(terms)-1 {
			conj = append(conj, bleve.NewDisjunctionQuery(bleve.NewPrefixQuery(term), fq))
			continue
		}
		conj = append(conj, bleve.NewDisjunctionQuery(bleve.NewTermQuery(term), fq))
	}
	req := bleve.NewSearchRequest(bleve.NewConjunctionQuery(conj...))
	req.Size = limit * 2
	req.Fields = []string{"name", "kind"}

	s.mu.Lock()
	res, err := s.index.SearchInContext(ctx, req)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("suggestion search failed: %w", err)
	}

	out := make([]Suggestion, 0, limit)
	dedup := make(map[string]struct{})
	for _, hit := range res.Hits {
		name, _ := hit.Fields["name"].(string)
		kind, _ := hit.Fields["kind"].(string)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := dedup[key]; dup {
			continue
		}
		dedup[key] = struct{}{}
		out = append(out, Suggestion{ID: hit.ID, Text: name, Type: kind})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// SuggestNames returns only the display names of Suggest's hits.
func (s *SuggestionIndex) SuggestNames(ctx context.Context, input string, limit int) ([]string, error) {
	hits, err := s.Suggest(ctx, input, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Text
	}
	return names, nil
}

// DocCount returns the number of indexed records.
func (s *SuggestionIndex) DocCount() (uint64, error) {
	return s.index.DocCount()
}

// Close closes the index.
func (s *SuggestionIndex) Close() error {
	return s.index.Close()
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	words := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()")
		if w != "" {
			terms = append(terms, w)
		}
	}
	return terms
}
