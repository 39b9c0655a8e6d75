package topics

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ricesearch/rice-eval/internal/pkg/errors"
)

// rawTopic mirrors one <top> element.
type rawTopic struct {
	Num   string `xml:"num"`
	Title string `xml:"title"`
	Desc  string `xml:"desc"`
	Narr  string `xml:"narr"`
}

type rawTopics struct {
	Topics []rawTopic `xml:"top"`
}

var (
	numPrefix  = regexp.MustCompile(`(?i)^number:\s*`)
	descPrefix = regexp.MustCompile(`(?i)^description:\s*`)
	narrPrefix = regexp.MustCompile(`(?i)^narrative:\s*`)
	rootTag    = regexp.MustCompile(`^\s*(<\?xml[^>]*\?>\s*)?<topics[\s>]`)
)

// LoadFile parses a topic file from disk.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.TopicParseError("opening topic file", err).WithDetail("path", path)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads TREC topics. Both a <topics> wrapped XML document and the
// classic root-less SGML layout are accepted.
func Parse(r io.Reader) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.TopicParseError("reading topics", err)
	}

	if !rootTag.Match(data) {
		data = wrapRoot(data)
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var raw rawTopics
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.TopicParseError("decoding topics", err)
	}

	list := make([]Topic, 0, len(raw.Topics))
	for _, rt := range raw.Topics {
		id := clean(numPrefix.ReplaceAllString(strings.TrimSpace(rt.Num), ""))
		if id == "" {
			return nil, errors.TopicParseError("topic without number", nil)
		}
		list = append(list, Topic{
			ID:          id,
			Title:       clean(rt.Title),
			Description: clean(descPrefix.ReplaceAllString(strings.TrimSpace(rt.Desc), "")),
			Narrative:   clean(narrPrefix.ReplaceAllString(strings.TrimSpace(rt.Narr), "")),
		})
	}

	if len(list) == 0 {
		return nil, errors.TopicParseError("no topics found", nil)
	}

	return NewSet(list), nil
}

// wrapRoot gives root-less topic files a single document element,
// dropping any XML declaration first.
func wrapRoot(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("<?xml")) {
		if end := bytes.Index(trimmed, []byte("?>")); end >= 0 {
			trimmed = trimmed[end+2:]
		}
	}
	out := make([]byte, 0, len(trimmed)+len("<topics></topics>"))
	out = append(out, "<topics>"...)
	out = append(out, trimmed...)
	out = append(out, "</topics>"...)
	return out
}

// clean collapses internal whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
