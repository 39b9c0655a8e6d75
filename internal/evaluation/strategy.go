package evaluation

import (
	"fmt"

	"github.com/ricesearch/rice-eval/internal/ml"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// Strategy names a retrieval configuration. The names are the table row labels.
type Strategy string

const (
	StrategyBM25       Strategy = "BM25"
	StrategyBM25Custom Strategy = "BM25_custom"
	StrategyFastText   Strategy = "fastText"
	StrategyBert       Strategy = "Bert"
)

// Strategies returns all strategies in table row order.
func Strategies() []Strategy {
	return []Strategy{StrategyBM25, StrategyBM25Custom, StrategyFastText, StrategyBert}
}

// StrategyFor maps the single-query flags onto a strategy. A vector name
// takes precedence over the custom analyzer flag.
func StrategyFor(customAnalyzer bool, vectorName string) (Strategy, error) {
	switch vectorName {
	case "":
		if customAnalyzer {
			return StrategyBM25Custom, nil
		}
		return StrategyBM25, nil
	case ml.ServiceFastText:
		return StrategyFastText, nil
	case ml.ServiceSBERT:
		return StrategyBert, nil
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown vector name %q (must be sbert or fasttext)", vectorName))
	}
}

// ParseStrategy accepts a strategy name as printed in the table.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", errors.ValidationError(fmt.Sprintf("unknown strategy %q", s))
}

// Custom reports whether the strategy uses the custom analyzer.
func (s Strategy) Custom() bool {
	return s == StrategyBM25Custom
}

// VectorService returns the embedding service used by the strategy, or ""
// for lexical strategies.
func (s Strategy) VectorService() string {
	switch s {
	case StrategyFastText:
		return ml.ServiceFastText
	case StrategyBert:
		return ml.ServiceSBERT
	default:
		return ""
	}
}
