package corpus

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLiteralScalars(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"0", Value{Kind: KindInt, Int: 0}},
		{"42", Value{Kind: KindInt, Int: 42}},
		{"-1", Value{Kind: KindInt, Int: -1}},
		{"+7", Value{Kind: KindInt, Int: 7}},
		{"12L", Value{Kind: KindInt, Int: 12}},
		{"True", Value{Kind: KindBool, Bool: true}},
		{"false", Value{Kind: KindBool, Bool: false}},
		{"None", Value{Kind: KindNone}},
		{"'a.c'", Value{Kind: KindString, Str: "a.c"}},
		{`"x\"y"`, Value{Kind: KindString, Str: `x"y`}},
		{"  (5)  ", Value{Kind: KindInt, Int: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLiteral(tt.in)
			if err != nil {
				t.Fatalf("ParseLiteral(%q) error = %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLiteral(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLiteralSequences(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		ints []int
	}{
		{"[]", KindList, []int{}},
		{"()", KindTuple, []int{}},
		{"[1, 2, 3]", KindList, []int{1, 2, 3}},
		{"(1, 2, 3)", KindTuple, []int{1, 2, 3}},
		{"(5,)", KindTuple, []int{5}},
		{"[1, 2,]", KindList, []int{1, 2}},
		{"{3, 1}", KindSet, []int{3, 1}},
		{"frozenset([4, 5])", KindSet, []int{4, 5}},
		{"set()", KindSet, []int{}},
		{"tuple([9])", KindTuple, []int{9}},
		{"(\n 1,\n 2\n)", KindTuple, []int{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLiteral(tt.in)
			if err != nil {
				t.Fatalf("ParseLiteral(%q) error = %v", tt.in, err)
			}
			if got.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			ints, err := got.Ints()
			if err != nil {
				t.Fatalf("Ints() error = %v", err)
			}
			if !reflect.DeepEqual(ints, tt.ints) {
				t.Errorf("Ints() = %v, want %v", ints, tt.ints)
			}
		})
	}
}

func TestParseLiteralDict(t *testing.T) {
	got, err := ParseLiteral("{1: [12], 2: (40, 41), 3: [-1, 7],}")
	if err != nil {
		t.Fatalf("ParseLiteral() error = %v", err)
	}
	if got.Kind != KindDict {
		t.Fatalf("Kind = %v, want dict", got.Kind)
	}
	if len(got.Keys) != 3 || len(got.Items) != 3 {
		t.Fatalf("got %d keys and %d values, want 3 and 3", len(got.Keys), len(got.Items))
	}
	if got.Keys[1].Int != 2 {
		t.Errorf("Keys[1] = %d, want 2", got.Keys[1].Int)
	}
	lines, _ := got.Items[2].Ints()
	if !reflect.DeepEqual(lines, []int{-1, 7}) {
		t.Errorf("Items[2] = %v, want [-1 7]", lines)
	}

	empty, err := ParseLiteral("{}")
	if err != nil || empty.Kind != KindDict {
		t.Errorf("ParseLiteral({}) = %v, %v; want empty dict", empty.Kind, err)
	}
}

func TestParseLiteralErrors(t *testing.T) {
	tests := []struct {
		in     string
		column int
	}{
		{"", 1},
		{"[1, 2", 6},
		{"(1 2)", 4},
		{"1.5", 2},
		{"__import__('os')", 1},
		{"[1] x", 5},
		{"{1: }", 5},
		{"'open", 1},
		{"@", 1},
		{strings.Repeat("[", 100), maxLiteralDepth + 1},
		{"frozenset(" + strings.Repeat("(", 70), maxLiteralDepth + 10},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseLiteral(tt.in)
			if err == nil {
				t.Fatalf("ParseLiteral(%q) expected error", tt.in)
			}
			le, ok := err.(*LiteralError)
			if !ok {
				t.Fatalf("error type = %T, want *LiteralError", err)
			}
			if le.Column != tt.column {
				t.Errorf("Column = %d, want %d (%v)", le.Column, tt.column, err)
			}
		})
	}
}

func TestParseLiteralDepthLimit(t *testing.T) {
	in := strings.Repeat("[", maxLiteralDepth) + strings.Repeat("]", maxLiteralDepth)
	v, err := ParseLiteral(in)
	if err != nil {
		t.Fatalf("ParseLiteral(%d nested lists) error = %v", maxLiteralDepth, err)
	}
	if v.Kind != KindList {
		t.Errorf("Kind = %v, want list", v.Kind)
	}

	_, err = ParseLiteral("[" + in + "]")
	if err == nil || !strings.Contains(err.Error(), "nested deeper") {
		t.Errorf("ParseLiteral(%d nested lists) error = %v, want depth error", maxLiteralDepth+1, err)
	}
}

func TestValueTruth(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"True", true, false},
		{"False", false, false},
		{"1", true, false},
		{"0", false, false},
		{"2", false, true},
		{"[1]", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseLiteral(tt.in)
			if err != nil {
				t.Fatalf("ParseLiteral(%q) error = %v", tt.in, err)
			}
			got, err := v.Truth()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Truth() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Truth() = %v, want %v", got, tt.want)
			}
		})
	}
}
