package main

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ricesearch/rice-eval/internal/config"
	"github.com/ricesearch/rice-eval/internal/pkg/errors"
	"github.com/ricesearch/rice-eval/internal/search"
)

func TestNormalizeArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "single dash make_table",
			args: []string{"--index_name", "wapo", "-make_table"},
			want: []string{"--index_name", "wapo", "--make_table"},
		},
		{
			name: "with value",
			args: []string{"-make_table=true"},
			want: []string{"--make_table=true"},
		},
		{
			name: "shorthand untouched",
			args: []string{"-u", "-c", "cfg.yaml"},
			want: []string{"-u", "-c", "cfg.yaml"},
		},
		{
			name: "after terminator",
			args: []string{"--", "-make_table"},
			want: []string{"--", "-make_table"},
		},
		{
			name: "empty",
			args: nil,
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeArgs(tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("normalizeArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestEnumValue(t *testing.T) {
	e := newEnumValue("title", "title", "narration", "description")

	if e.String() != "title" {
		t.Errorf("String() = %q, want title", e.String())
	}
	if err := e.Set("narration"); err != nil {
		t.Fatalf("Set(narration) error = %v", err)
	}
	if e.String() != "narration" {
		t.Errorf("String() = %q, want narration", e.String())
	}

	err := e.Set("summary")
	if err == nil {
		t.Fatal("Set(summary) expected error")
	}
	if !strings.Contains(err.Error(), "title, narration, description") {
		t.Errorf("error %q should list choices", err)
	}
	if e.String() != "narration" {
		t.Errorf("value changed on invalid Set: %q", e.String())
	}
}

// execute runs the root command with a capturing runner.
func execute(t *testing.T, args ...string) (*options, string, error) {
	t.Helper()

	var got *options
	cmd := newRootCmd(func(ctx context.Context, opts *options, out io.Writer) error {
		got = opts
		return nil
	})

	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(normalizeArgs(args))

	err := cmd.ExecuteContext(context.Background())
	return got, buf.String(), err
}

func TestRootCmd_SingleMode(t *testing.T) {
	opts, _, err := execute(t, "--index_name", "wapo_docs", "--topic_id", "321", "--query_type", "narration", "-u")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if opts == nil {
		t.Fatal("runner not called")
	}

	if opts.indexName != "wapo_docs" {
		t.Errorf("indexName = %q", opts.indexName)
	}
	if opts.topicID != 321 {
		t.Errorf("topicID = %d", opts.topicID)
	}
	if opts.queryType.String() != "narration" {
		t.Errorf("queryType = %q", opts.queryType.String())
	}
	if !opts.custom {
		t.Error("custom = false, want true")
	}
	if opts.makeTable {
		t.Error("makeTable = true, want false")
	}
	if opts.topKSet {
		t.Error("topKSet = true without --top_k")
	}
	if opts.topK != 20 {
		t.Errorf("topK = %d, want 20", opts.topK)
	}
	if opts.vectorName.String() != "" {
		t.Errorf("vectorName = %q, want empty", opts.vectorName.String())
	}
}

func TestRootCmd_TableMode(t *testing.T) {
	opts, _, err := execute(t, "--index_name", "wapo_docs", "--topic_id", "408", "-make_table", "--top_k", "50")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !opts.makeTable {
		t.Error("makeTable = false, want true")
	}
	if !opts.topKSet || opts.topK != 50 {
		t.Errorf("topK = %d (set=%v), want 50 set", opts.topK, opts.topKSet)
	}
}

func TestRootCmd_DashedNames(t *testing.T) {
	opts, _, err := execute(t, "--index-name", "wapo_docs", "--topic-id", "321", "--vector-name", "sbert")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if opts.vectorName.String() != "sbert" {
		t.Errorf("vectorName = %q, want sbert", opts.vectorName.String())
	}
}

func TestRootCmd_Rejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"invalid query type", []string{"--index_name", "x", "--topic_id", "1", "--query_type", "summary"}},
		{"invalid vector name", []string{"--index_name", "x", "--topic_id", "1", "--vector_name", "glove"}},
		{"non-numeric topic", []string{"--index_name", "x", "--topic_id", "abc"}},
		{"missing index", []string{"--topic_id", "1"}},
		{"missing topic", []string{"--index_name", "x"}},
		{"positional arg", []string{"--index_name", "x", "--topic_id", "1", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if opts != nil {
				t.Error("runner called despite invalid arguments")
			}
		})
	}
}

func TestRootCmd_FlagErrorExitCode(t *testing.T) {
	_, _, err := execute(t, "--index_name", "x", "--topic_id", "1", "--query_type", "summary")
	if got := errors.ExitCode(err); got != 2 {
		t.Errorf("ExitCode() = %d, want 2", got)
	}
}

func TestRootCmd_MissingRequiredExitCode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"index", []string{"--topic_id", "408"}, `required flag(s) "index_name" not set`},
		{"topic", []string{"--index_name", "wapo"}, `required flag(s) "topic_id" not set`},
		{"both", nil, `required flag(s) "index_name", "topic_id" not set`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, _, err := execute(t, tt.args...)
			if opts != nil {
				t.Error("runner called without required flags")
			}
			if !errors.IsValidation(err) {
				t.Fatalf("Execute() error = %v, want validation error", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
			if got := errors.ExitCode(err); got != 2 {
				t.Errorf("ExitCode() = %d, want 2", got)
			}
		})
	}
}

func TestVersionCmd(t *testing.T) {
	_, out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out, "rice-eval dev\n") {
		t.Errorf("version output = %q", out)
	}
	if !strings.Contains(out, "commit: none") {
		t.Errorf("version output missing commit: %q", out)
	}
}

func TestParseQdrantURL(t *testing.T) {
	tests := []struct {
		url      string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"http://localhost:6333", "localhost", 6334, false},
		{"http://qdrant:6334", "qdrant", 6334, false},
		{"http://qdrant", "qdrant", 6334, false},
		{"http://10.0.0.5:7000", "10.0.0.5", 7000, false},
		{"http://:6333", "localhost", 6334, false},
		{"http://qdrant:abc", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			host, port, err := parseQdrantURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseQdrantURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseQdrantURL() = %s:%d, want %s:%d", host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	opts := newOptions()
	opts.topicsPath = "/data/topics.xml"
	opts.qdrantURL = "http://qdrant:6333"
	opts.topK = 100
	opts.topKSet = true
	if err := opts.logLevel.Set("debug"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.TopicsPath != "/data/topics.xml" {
		t.Errorf("TopicsPath = %q", cfg.TopicsPath)
	}
	if cfg.Qdrant.Host != "qdrant" || cfg.Qdrant.Port != 6334 {
		t.Errorf("Qdrant = %s:%d, want qdrant:6334", cfg.Qdrant.Host, cfg.Qdrant.Port)
	}
	if cfg.Eval.TopK != 100 {
		t.Errorf("TopK = %d, want 100", cfg.Eval.TopK)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestLoadConfig_InvalidTopK(t *testing.T) {
	opts := newOptions()
	opts.topK = 0
	opts.topKSet = true

	_, err := loadConfig(opts)
	if !errors.IsValidation(err) {
		t.Errorf("loadConfig() error = %v, want validation error", err)
	}
}

func TestRun_UnknownTopic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.xml")
	doc := "<top><num>408</num><title>Tropical storms</title><desc>storm damage</desc><narr>casualties</narr></top>"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd(run)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--index_name", "wapo_docs", "--topic_id", "999", "--topics", path, "--log-level", "error"})

	err := cmd.ExecuteContext(context.Background())
	if !errors.IsNotFound(err) {
		t.Fatalf("Execute() error = %v, want not found", err)
	}
	if got := errors.ExitCode(err); got != 2 {
		t.Errorf("ExitCode() = %d, want 2", got)
	}
}

func TestConnectPolicy(t *testing.T) {
	unavailable := search.ConnectResult{
		Status: search.StatusFailed,
		Err:    errors.BackendUnavailableError("qdrant", stderrors.New("connection refused")),
	}
	missing := search.ConnectResult{
		Status: search.StatusFailed,
		Err:    errors.NotFoundError("index wapo"),
	}
	connected := search.ConnectResult{Status: search.StatusConnected}

	tests := []struct {
		name    string
		policy  string
		res     search.ConnectResult
		wantErr bool
	}{
		{"connected fail", config.OnConnectFail, connected, false},
		{"connected degrade", config.OnConnectDegrade, connected, false},
		{"unavailable fail", config.OnConnectFail, unavailable, true},
		{"unavailable degrade", config.OnConnectDegrade, unavailable, false},
		{"missing index fail", config.OnConnectFail, missing, true},
		{"missing index degrade", config.OnConnectDegrade, missing, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.Eval.OnConnectFailure = tt.policy

			err := connectPolicy(cfg, tt.res)
			if (err != nil) != tt.wantErr {
				t.Errorf("connectPolicy() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPostgresConfig(t *testing.T) {
	t.Setenv("RICE_EVAL_POSTGRES_TIMEOUT", "7")

	cfg, err := loadConfig(newOptions())
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	pc := postgresConfig(cfg)
	if pc.Timeout != 7*time.Second {
		t.Errorf("Timeout = %v, want 7s", pc.Timeout)
	}
	if pc.DSN != cfg.Postgres.DSN || pc.Schema != cfg.Postgres.Schema {
		t.Errorf("postgresConfig() = %+v, want DSN and schema from config", pc)
	}
}
