package corpus

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"tracerank/internal/errors"
)

// Inapplicable is the first faulty line of a version with no applicable fault.
const Inapplicable = -1

// Ground-truth encodings.
const (
	FormatLiteral = "literal"
	FormatYAML    = "yaml"
)

// Fault is the known faulty lines of one version.
type Fault struct {
	Version int
	Lines   []int
}

// Applicable is false when the version is marked with a leading -1.
func (f Fault) Applicable() bool {
	return len(f.Lines) == 0 || f.Lines[0] != Inapplicable
}

// Targets returns the lines a candidate must hit, excluding the sentinel.
func (f Fault) Targets() []int {
	if !f.Applicable() {
		return nil
	}
	return f.Lines
}

// FormatLines renders the faulty lines as they appear in rank logs, e.g. "[12, 45]".
func (f Fault) FormatLines() string {
	parts := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		parts[i] = strconv.Itoa(l)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// GroundTruth maps version numbers to their faulty lines.
type GroundTruth struct {
	entries map[int][]int
}

// NewGroundTruth builds a mapping from already-decoded entries.
func NewGroundTruth(entries map[int][]int) *GroundTruth {
	g := &GroundTruth{entries: make(map[int][]int, len(entries))}
	for v, lines := range entries {
		g.entries[v] = append([]int(nil), lines...)
	}
	return g
}

// Lookup returns the fault for version, or MISSING_GROUND_TRUTH.
func (g *GroundTruth) Lookup(version int) (Fault, error) {
	lines, ok := g.entries[version]
	if !ok {
		return Fault{}, errors.Newf(errors.MissingGroundTruth, "no ground-truth entry for version %d", version)
	}
	return Fault{Version: version, Lines: append([]int(nil), lines...)}, nil
}

// Versions returns the versions present, ascending.
func (g *GroundTruth) Versions() []int {
	out := make([]int, 0, len(g.entries))
	for v := range g.entries {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// FormatForPath picks the ground-truth encoding from a file extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(BaseName(path))) {
	case ".json", ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatLiteral
	}
}

// LoadGroundTruth reads a ground-truth file, choosing the encoding by extension.
func LoadGroundTruth(path string) (*GroundTruth, error) {
	rc, err := OpenInput(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ParseGroundTruth(rc, path, FormatForPath(path))
}

// ParseGroundTruth decodes a mapping of version to faulty lines. Values may be
// a single integer or a sequence of integers.
func ParseGroundTruth(r io.Reader, source, format string) (*GroundTruth, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(errors.IOError, "cannot read "+source, err)
	}
	switch format {
	case FormatLiteral, "":
		return parseLiteralGroundTruth(string(data), source)
	case FormatYAML:
		return parseYAMLGroundTruth(data, source)
	default:
		return nil, errors.Newf(errors.UnsupportedFormat, "unknown ground-truth format %q", format)
	}
}

func parseLiteralGroundTruth(text, source string) (*GroundTruth, error) {
	v, err := ParseLiteral(text)
	if err != nil {
		return nil, literalError(source, 0, "invalid ground-truth mapping", err)
	}
	if v.Kind != KindDict {
		return nil, errors.Malformed(source, 0, fmt.Sprintf("ground truth must be a mapping, got %s", v.Kind), nil)
	}
	entries := make(map[int][]int, len(v.Keys))
	for i, k := range v.Keys {
		if k.Kind != KindInt {
			return nil, errors.Malformed(source, 0, fmt.Sprintf("version key must be an integer, got %s", k.Kind), nil)
		}
		lines, err := faultLines(v.Items[i])
		if err != nil {
			return nil, errors.Malformed(source, 0, fmt.Sprintf("version %d", k.Int), err)
		}
		entries[k.Int] = lines
	}
	return &GroundTruth{entries: entries}, nil
}

func faultLines(v Value) ([]int, error) {
	if v.Kind == KindInt {
		return []int{v.Int}, nil
	}
	return v.Ints()
}

func parseYAMLGroundTruth(data []byte, source string) (*GroundTruth, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Malformed(source, 0, "invalid ground-truth document", err)
	}
	entries := make(map[int][]int)
	if len(doc.Content) == 0 {
		return &GroundTruth{entries: entries}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Malformed(source, root.Line, "ground truth must be a mapping", nil)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		version, err := strconv.Atoi(key.Value)
		if err != nil {
			return nil, errors.Malformed(source, key.Line, fmt.Sprintf("version key %q is not an integer", key.Value), nil)
		}
		var lines []int
		switch val.Kind {
		case yaml.ScalarNode:
			n, err := strconv.Atoi(val.Value)
			if err != nil {
				return nil, errors.Malformed(source, val.Line, fmt.Sprintf("faulty line %q is not an integer", val.Value), nil)
			}
			lines = []int{n}
		case yaml.SequenceNode:
			for _, item := range val.Content {
				n, err := strconv.Atoi(item.Value)
				if item.Kind != yaml.ScalarNode || err != nil {
					return nil, errors.Malformed(source, item.Line, fmt.Sprintf("faulty line %q is not an integer", item.Value), nil)
				}
				lines = append(lines, n)
			}
		default:
			return nil, errors.Malformed(source, val.Line, "faulty lines must be an integer or a list", nil)
		}
		entries[version] = lines
	}
	return &GroundTruth{entries: entries}, nil
}
