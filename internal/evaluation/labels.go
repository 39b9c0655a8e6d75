package evaluation

import (
	"strings"

	"github.com/ricesearch/rice-eval/internal/search"
)

// Label converts a relevance annotation into a graded label for topicID.
//
// Annotations look like "<topic_id><grade>". The label is the grade digit
// when the annotation starts with topicID, and 0 for any other annotation,
// including empty, cross-topic and malformed ones.
func Label(annotation, topicID string) int {
	if annotation == "" || topicID == "" {
		return 0
	}
	if !strings.HasPrefix(annotation, topicID) || len(annotation) <= len(topicID) {
		return 0
	}

	c := annotation[len(topicID)]
	if c < '0' || c > '9' {
		return 0
	}
	return int(c - '0')
}

// LabelHits labels hits in rank order.
func LabelHits(hits []search.Hit, topicID string) []int {
	labels := make([]int, len(hits))
	for i, h := range hits {
		labels[i] = Label(h.Annotation, topicID)
	}
	return labels
}
