package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ricesearch/rice-eval/internal/topics"
)

// columnWidth is the fixed width of every rendered table cell.
const columnWidth = 20

// Table holds the NDCG scores of every strategy for every query type of one topic.
type Table struct {
	Index      string                 `json:"index"`
	TopicID    string                 `json:"topic_id"`
	Header     []topics.QueryType     `json:"header"`
	Strategies []Strategy             `json:"strategies"`
	Scores     map[Strategy][]float64 `json:"scores"`
}

// BuildTable evaluates every (strategy, query type) pair of the topic once.
func (e *Evaluator) BuildTable(ctx context.Context, index, topicID string) (*Table, error) {
	if _, err := e.topics.Get(topicID); err != nil {
		return nil, err
	}

	t := &Table{
		Index:      index,
		TopicID:    topicID,
		Header:     topics.QueryTypes(),
		Strategies: Strategies(),
		Scores:     make(map[Strategy][]float64, len(Strategies())),
	}

	for _, qt := range t.Header {
		for _, s := range t.Strategies {
			score, err := e.Evaluate(ctx, index, topicID, qt, s)
			if err != nil {
				return nil, fmt.Errorf("evaluating %s/%s: %w", s, qt, err)
			}
			t.Scores[s] = append(t.Scores[s], score)
		}
	}

	e.log.WithTopic(topicID).Debug("Table built", "index", index, "cells", len(t.Header)*len(t.Strategies))
	return t, nil
}

// Render writes the table as fixed-width rows: a header row with the topic
// label and the command-line query type names, then one row per strategy.
func (t *Table) Render(w io.Writer) error {
	header := []string{"Topic_" + t.TopicID}
	for _, qt := range t.Header {
		header = append(header, cliName(qt))
	}
	if err := writeRow(w, header); err != nil {
		return err
	}

	for _, s := range t.Strategies {
		row := []string{string(s)}
		for _, v := range t.Scores[s] {
			row = append(row, FormatScore(v))
		}
		if err := writeRow(w, row); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the table as indented JSON.
func (t *Table) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

func writeRow(w io.Writer, cells []string) error {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(c)
		if pad := columnWidth - len(c); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}

// cliName returns the query type as spelled on the command line.
func cliName(qt topics.QueryType) string {
	if qt == topics.QueryNarrative {
		return "narration"
	}
	return string(qt)
}

// FormatScore formats a score the way scores are conventionally printed:
// shortest round-trip digits, always with a decimal point ("0.0", "1.0",
// "0.91681"), switching to exponent form below 1e-4.
func FormatScore(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if v != 0 && math.Abs(v) < 1e-4 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
