package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tracerank/internal/errors"
)

func TestParseGroundTruthLiteral(t *testing.T) {
	in := "{1: [12], 2: (40, 41),\n 3: [-1, 7], 4: 9}\n"
	gt, err := ParseGroundTruth(strings.NewReader(in), "faults.txt", FormatLiteral)
	if err != nil {
		t.Fatalf("ParseGroundTruth() error = %v", err)
	}
	if got := gt.Versions(); !reflect.DeepEqual(got, []int{1, 2, 3, 4}) {
		t.Errorf("Versions() = %v", got)
	}

	tests := []struct {
		version    int
		lines      []int
		applicable bool
		formatted  string
	}{
		{1, []int{12}, true, "[12]"},
		{2, []int{40, 41}, true, "[40, 41]"},
		{3, []int{-1, 7}, false, "[-1, 7]"},
		{4, []int{9}, true, "[9]"},
	}
	for _, tt := range tests {
		f, err := gt.Lookup(tt.version)
		if err != nil {
			t.Fatalf("Lookup(%d) error = %v", tt.version, err)
		}
		if !reflect.DeepEqual(f.Lines, tt.lines) {
			t.Errorf("Lookup(%d).Lines = %v, want %v", tt.version, f.Lines, tt.lines)
		}
		if f.Applicable() != tt.applicable {
			t.Errorf("Lookup(%d).Applicable() = %v, want %v", tt.version, f.Applicable(), tt.applicable)
		}
		if f.FormatLines() != tt.formatted {
			t.Errorf("FormatLines() = %q, want %q", f.FormatLines(), tt.formatted)
		}
	}

	if _, err := gt.Lookup(99); !errors.HasCode(err, errors.MissingGroundTruth) {
		t.Errorf("Lookup(99) error = %v, want MISSING_GROUND_TRUTH", err)
	}
}

func TestParseGroundTruthYAML(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"yaml", "1: [12]\n2: [40, 41]\n3: [-1]\n"},
		{"json", `{"1": [12], "2": [40, 41], "3": -1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt, err := ParseGroundTruth(strings.NewReader(tt.in), "faults", FormatYAML)
			if err != nil {
				t.Fatalf("ParseGroundTruth() error = %v", err)
			}
			f, _ := gt.Lookup(2)
			if !reflect.DeepEqual(f.Lines, []int{40, 41}) {
				t.Errorf("Lookup(2).Lines = %v", f.Lines)
			}
			f, _ = gt.Lookup(3)
			if f.Applicable() {
				t.Errorf("Lookup(3).Applicable() = true, want false")
			}
		})
	}
}

func TestParseGroundTruthMalformed(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		format string
	}{
		{"not a mapping", "[1, 2]", FormatLiteral},
		{"string key", "{'a': [1]}", FormatLiteral},
		{"call", "__import__('os').system('x')", FormatLiteral},
		{"yaml list", "- 1\n- 2\n", FormatYAML},
		{"yaml bad key", "one: [1]\n", FormatYAML},
		{"yaml bad line", "1: [x]\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseGroundTruth(strings.NewReader(tt.in), "faults", tt.format)
			if !errors.HasCode(err, errors.MalformedInput) {
				t.Errorf("error = %v, want MALFORMED_INPUT", err)
			}
		})
	}

	if _, err := ParseGroundTruth(strings.NewReader("{}"), "faults", "xml"); !errors.HasCode(err, errors.UnsupportedFormat) {
		t.Errorf("unknown format error = %v, want UNSUPPORTED_FORMAT", err)
	}
}

func TestLoadGroundTruthByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "faults.yaml")
	if err := os.WriteFile(path, []byte("5: [3, 4]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gt, err := LoadGroundTruth(path)
	if err != nil {
		t.Fatalf("LoadGroundTruth() error = %v", err)
	}
	if f, _ := gt.Lookup(5); !reflect.DeepEqual(f.Lines, []int{3, 4}) {
		t.Errorf("Lookup(5).Lines = %v", f.Lines)
	}

	if FormatForPath("a/faults.json.gz") != FormatYAML || FormatForPath("faults.txt") != FormatLiteral {
		t.Errorf("FormatForPath() picked the wrong format")
	}
}
