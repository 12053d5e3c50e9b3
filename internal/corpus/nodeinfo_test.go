package corpus

import (
	"reflect"
	"strings"
	"testing"

	"tracerank/internal/errors"
)

func TestParseNodeTable(t *testing.T) {
	in := `1 = (src/a.c; 12; 3; main; )
2 = (src/a.c; (40, 42); 1; helper; main)

3 = [src/b.c; 7; 0; ; ]
`
	table, err := ParseNodeTable(strings.NewReader(in), "nodes.txt")
	if err != nil {
		t.Fatalf("ParseNodeTable() error = %v", err)
	}
	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}
	if got := table.IDs(); !reflect.DeepEqual(got, []int{1, 2, 3}) {
		t.Errorf("IDs() = %v, want [1 2 3]", got)
	}

	n, ok := table.Get(2)
	if !ok {
		t.Fatal("Get(2) not found")
	}
	want := &Node{ID: 2, File: "src/a.c", Line: LineSpan{Start: 40, End: 42}, Column: 1, Scope: "helper", InlinedAt: "main"}
	if !reflect.DeepEqual(n, want) {
		t.Errorf("Get(2) = %+v, want %+v", n, want)
	}
	if n3, _ := table.Get(3); n3.File != "src/b.c" || n3.Line != (LineSpan{Start: 7, End: 7}) {
		t.Errorf("Get(3) = %+v", n3)
	}
}

func TestParseNodeTableMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"missing separator", "1 (a.c; 1; 1; f; )\n", 1},
		{"non-integer id", "x = (a.c; 1; 1; f; )\n", 1},
		{"too few fields", "1 = (a.c; 1; 1)\n", 1},
		{"bad line", "1 = (a.c; 1; 1; f; )\n2 = (a.c; one; 1; f; )\n", 2},
		{"triple line", "1 = (a.c; (1, 2, 3); 1; f; )\n", 1},
		{"reversed interval", "1 = (a.c; (9, 3); 1; f; )\n", 1},
		{"duplicate id", "1 = (a.c; 1; 1; f; )\n1 = (a.c; 2; 1; f; )\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNodeTable(strings.NewReader(tt.in), "nodes.txt")
			if !errors.HasCode(err, errors.MalformedInput) {
				t.Fatalf("error = %v, want MALFORMED_INPUT", err)
			}
			if re := err.(*errors.RankError); re.Line != tt.line {
				t.Errorf("Line = %d, want %d", re.Line, tt.line)
			}
		})
	}
}

func TestLineSpan(t *testing.T) {
	s := LineSpan{Start: 4, End: 6}
	if got := s.Lines(); !reflect.DeepEqual(got, []int{4, 5, 6}) {
		t.Errorf("Lines() = %v, want [4 5 6]", got)
	}
	if !s.Contains(6) || s.Contains(7) {
		t.Errorf("Contains() wrong at interval bounds")
	}
	if s.String() != "4-6" || (LineSpan{Start: 3, End: 3}).String() != "3" {
		t.Errorf("String() = %q", s.String())
	}
}
