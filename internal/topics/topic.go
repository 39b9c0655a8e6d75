// Package topics loads TREC topics and exposes them as an immutable lookup.
package topics

import (
	"sort"
	"strconv"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// QueryType selects which formulation of a topic is used as the query.
type QueryType string

// Query types, in table column order.
const (
	QueryTitle       QueryType = "title"
	QueryDescription QueryType = "description"
	QueryNarrative   QueryType = "narrative"
)

// QueryTypes returns the query types in table column order.
func QueryTypes() []QueryType {
	return []QueryType{QueryTitle, QueryDescription, QueryNarrative}
}

// ParseQueryType accepts the canonical names and the "narration" spelling
// used on the command line.
func ParseQueryType(s string) (QueryType, error) {
	switch s {
	case "title":
		return QueryTitle, nil
	case "description":
		return QueryDescription, nil
	case "narrative", "narration":
		return QueryNarrative, nil
	default:
		return "", errors.ValidationError("unknown query type: " + s).WithDetail("query_type", s)
	}
}

// Topic is one TREC evaluation topic.
type Topic struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Narrative   string `json:"narrative"`
}

// Text returns the formulation selected by qt.
func (t Topic) Text(qt QueryType) (string, error) {
	switch qt {
	case QueryTitle:
		return t.Title, nil
	case QueryDescription:
		return t.Description, nil
	case QueryNarrative:
		return t.Narrative, nil
	default:
		return "", errors.ValidationError("unknown query type: " + string(qt))
	}
}

// Set is an immutable topic lookup keyed by topic id.
type Set struct {
	byID map[string]Topic
	ids  []string
}

// NewSet builds a Set. Later duplicates of an id replace earlier ones.
func NewSet(list []Topic) *Set {
	s := &Set{byID: make(map[string]Topic, len(list))}
	for _, t := range list {
		if _, seen := s.byID[t.ID]; !seen {
			s.ids = append(s.ids, t.ID)
		}
		s.byID[t.ID] = t
	}
	sort.Slice(s.ids, func(i, j int) bool {
		a, errA := strconv.Atoi(s.ids[i])
		b, errB := strconv.Atoi(s.ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return s.ids[i] < s.ids[j]
	})
	return s
}

// Get returns the topic with the given id.
func (s *Set) Get(id string) (Topic, error) {
	t, ok := s.byID[id]
	if !ok {
		return Topic{}, errors.NotFoundError("topic " + id)
	}
	return t, nil
}

// IDs returns the topic ids in ascending order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of topics.
func (s *Set) Len() int {
	return len(s.byID)
}
