package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// options holds the parsed command line.
type options struct {
	configPath string
	indexName  string
	topicID    int
	queryType  *enumValue
	custom     bool
	vectorName *enumValue
	topK       int
	topKSet    bool
	makeTable  bool

	topicsPath string
	backend    *enumValue
	qdrantURL  string
	logLevel   *enumValue
	format     *enumValue
}

func newOptions() *options {
	return &options{
		queryType:  newEnumValue("title", "title", "narration", "description"),
		vectorName: newEnumValue("", "sbert", "fasttext"),
		backend:    newEnumValue("", "qdrant", "postgres"),
		logLevel:   newEnumValue("", "debug", "info", "warn", "error"),
		format:     newEnumValue("text", "text", "json"),
	}
}

func (o *options) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.SetNormalizeFunc(underscoreFlags)

	f.StringVar(&o.indexName, "index_name", "", "name of the index queried")
	f.IntVar(&o.topicID, "topic_id", 0, "id of the topic used as query")
	f.Var(o.queryType, "query_type", "topic field used as query ("+o.queryType.choices()+")")
	f.BoolVarP(&o.custom, "custom_analyzer", "u", false, "use the custom analyzer")
	f.Var(o.vectorName, "vector_name", "embedding service for vector search ("+o.vectorName.choices()+")")
	f.IntVar(&o.topK, "top_k", 20, "number of hits retrieved")
	f.BoolVar(&o.makeTable, "make_table", false, "print the NDCG table for the topic")

	f.StringVarP(&o.configPath, "config", "c", "", "config file path")
	f.StringVar(&o.topicsPath, "topics", "", "TREC topic file (overrides config)")
	f.Var(o.backend, "backend", "retrieval backend (overrides config: "+o.backend.choices()+")")
	f.StringVar(&o.qdrantURL, "qdrant", "", "Qdrant URL (overrides config)")
	f.Var(o.logLevel, "log-level", "log level (overrides config: "+o.logLevel.choices()+")")
	f.Var(o.format, "format", "output format ("+o.format.choices()+")")
}

// requiredFlags must be set on the root command.
var requiredFlags = []string{"index_name", "topic_id"}

// checkRequired returns a validation error naming every required flag that
// was not set.
func checkRequired(cmd *cobra.Command) error {
	var missing []string
	for _, name := range requiredFlags {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, `"`+name+`"`)
		}
	}
	if len(missing) > 0 {
		return errors.ValidationError(fmt.Sprintf("required flag(s) %s not set", strings.Join(missing, ", ")))
	}
	return nil
}

// underscoreFlags accepts dashed spellings of the underscored flag names.
func underscoreFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "index-name", "topic-id", "query-type", "vector-name", "top-k", "make-table", "custom-analyzer":
		name = strings.ReplaceAll(name, "-", "_")
	}
	return pflag.NormalizedName(name)
}

// singleDashLong lists long flags that are also accepted with one dash.
var singleDashLong = map[string]bool{
	"make_table": true,
}

// normalizeArgs rewrites "-make_table" to "--make_table" so the single-dash
// spelling parses as a long flag rather than a shorthand cluster.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			out = append(out, args[i:]...)
			break
		}
		if strings.HasPrefix(a, "-") && !strings.HasPrefix(a, "--") {
			name := strings.TrimPrefix(a, "-")
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				name = name[:eq]
			}
			if singleDashLong[name] {
				a = "-" + a
			}
		}
		out = append(out, a)
	}
	return out
}

// enumValue is a string flag restricted to a fixed set of values.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(def string, allowed ...string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string {
	return e.value
}

func (e *enumValue) Set(s string) error {
	for _, a := range e.allowed {
		if s == a {
			e.value = s
			return nil
		}
	}
	return fmt.Errorf("invalid choice %q (choose from %s)", s, e.choices())
}

func (e *enumValue) Type() string {
	return "string"
}

func (e *enumValue) choices() string {
	return strings.Join(e.allowed, ", ")
}
