package corpus

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"tracerank/internal/errors"
)

const sampleTraces = `True
,(1, 2, 3)
False
,(1, 2)

False
,(1, 2)
True
,[2, 3]
False
,(3,)
`

func TestReadTracesNodeMode(t *testing.T) {
	store, err := ReadTraces(strings.NewReader(sampleTraces), "t.txt", ModeNode)
	if err != nil {
		t.Fatalf("ReadTraces() error = %v", err)
	}

	if got := len(store.Failing()); got != 2 {
		t.Errorf("len(Failing()) = %d, want 2", got)
	}
	if got := len(store.Succeeding()); got != 2 {
		t.Errorf("len(Succeeding()) = %d, want 2 (duplicate collapsed)", got)
	}
	succ, fail := store.Runs()
	if succ != 3 || fail != 2 {
		t.Errorf("Runs() = (%d, %d), want (3, 2)", succ, fail)
	}

	tests := []struct {
		node int
		want Stats
	}{
		{1, Stats{Success: 1, Failure: 1}},
		{2, Stats{Success: 1, Failure: 2}},
		{3, Stats{Success: 1, Failure: 2}},
		{9, Stats{}},
	}
	for _, tt := range tests {
		if got := store.Stats(NodeElement(tt.node)); got != tt.want {
			t.Errorf("Stats(%d) = %+v, want %+v", tt.node, got, tt.want)
		}
	}

	want := []Element{NodeElement(1), NodeElement(2), NodeElement(3)}
	if got := store.FailingElements(); !reflect.DeepEqual(got, want) {
		t.Errorf("FailingElements() = %v, want %v", got, want)
	}
}

func TestReadTracesEdgeMode(t *testing.T) {
	store, err := ReadTraces(strings.NewReader("True\n,(1, 2, 1)\n"), "t.txt", ModeEdge)
	if err != nil {
		t.Fatalf("ReadTraces() error = %v", err)
	}
	tr := store.Failing()[0]
	want := []Element{EdgeElement(1, 2), EdgeElement(2, 1), EdgeElement(1, Terminal)}
	if !reflect.DeepEqual(tr.Elements(), want) {
		t.Errorf("Elements() = %v, want %v", tr.Elements(), want)
	}
	if idx, ok := tr.FirstIndex(EdgeElement(1, Terminal)); !ok || idx != 2 {
		t.Errorf("FirstIndex(1->-1) = %d, %v; want 2, true", idx, ok)
	}
}

func TestReadTracesMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{"bad marker", "maybe\n,(1,)\n", 1},
		{"marker without data", "True\n", 1},
		{"marker followed by marker", "True\nFalse\n,(1,)\n", 1},
		{"data without marker", ",(1, 2)\n", 1},
		{"non-integer data", "True\n,('a', 2)\n", 2},
		{"broken tuple", "False\n,(1, 2\n", 2},
		{"deeply nested data", "True\n," + strings.Repeat("[", 10000) + "\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTraces(strings.NewReader(tt.in), "t.txt", ModeNode)
			if err == nil {
				t.Fatal("ReadTraces() expected error")
			}
			if !errors.HasCode(err, errors.MalformedInput) {
				t.Fatalf("error = %v, want MALFORMED_INPUT", err)
			}
			re := err.(*errors.RankError)
			if re.Line != tt.line {
				t.Errorf("Line = %d, want %d", re.Line, tt.line)
			}
		})
	}
}

func TestWriteTracesRoundTrip(t *testing.T) {
	store, err := ReadTraces(strings.NewReader(sampleTraces), "t.txt", ModeNode)
	if err != nil {
		t.Fatalf("ReadTraces() error = %v", err)
	}

	var buf bytes.Buffer
	if err := WriteTraces(&buf, store); err != nil {
		t.Fatalf("WriteTraces() error = %v", err)
	}
	wantText := "True\n,(1, 2, 3)\nFalse\n,(1, 2)\nTrue\n,(2, 3)\nFalse\n,(3,)\n"
	if buf.String() != wantText {
		t.Errorf("WriteTraces() =\n%s\nwant\n%s", buf.String(), wantText)
	}

	again, err := ReadTraces(&buf, "simplified.txt", ModeNode)
	if err != nil {
		t.Fatalf("ReadTraces(simplified) error = %v", err)
	}
	if !reflect.DeepEqual(again.Elements(), store.Elements()) {
		t.Errorf("Elements() after round trip = %v, want %v", again.Elements(), store.Elements())
	}
}

func TestStatsFrequency(t *testing.T) {
	tests := []struct {
		stats Stats
		want  float64
	}{
		{Stats{}, 0},
		{Stats{Success: 3, Failure: 1}, 0.75},
		{Stats{Failure: 2}, 0},
	}
	for _, tt := range tests {
		if got := tt.stats.Frequency(); got != tt.want {
			t.Errorf("%+v.Frequency() = %v, want %v", tt.stats, got, tt.want)
		}
	}
}

func TestElementOrdering(t *testing.T) {
	es := []Element{EdgeElement(2, 1), NodeElement(3), EdgeElement(1, Terminal), EdgeElement(1, 2), NodeElement(1)}
	sortElements(es)
	want := []Element{NodeElement(1), NodeElement(3), EdgeElement(1, Terminal), EdgeElement(1, 2), EdgeElement(2, 1)}
	if !reflect.DeepEqual(es, want) {
		t.Errorf("sorted = %v, want %v", es, want)
	}
	if got := EdgeElement(4, 5).Key(); got != "4->5" {
		t.Errorf("Key() = %q, want 4->5", got)
	}
}
