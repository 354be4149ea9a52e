package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeForMatch(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "CT Abdomen Pelvis", "ct abdomen pelvis"},
		{"trims", "  er \t", "er"},
		{"collapses whitespace", "renal \t colic\n workup", "renal colic workup"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeForMatch(tt.input); got != tt.expected {
				t.Errorf("NormalizeForMatch(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestContainsAny(t *testing.T) {
	terms := []string{"kidney stone", "flank pain", "nephrolithiasis"}

	term, ok := ContainsAny("Left FLANK PAIN, hematuria", terms)
	if !ok {
		t.Fatal("expected a term match")
	}
	if term != "flank pain" {
		t.Errorf("matched term = %q, want %q", term, "flank pain")
	}

	if _, ok := ContainsAny("abdominal pain", terms); ok {
		t.Error("expected no match for unrelated text")
	}

	if _, ok := ContainsAny("", terms); ok {
		t.Error("expected no match for empty text")
	}

	if _, ok := ContainsAny("flank pain", nil); ok {
		t.Error("expected no match for empty term list")
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("hematuria, renal mass , , characterization")
	want := []string{"hematuria", "renal mass", "characterization"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}

	if got := SplitList(""); len(got) != 0 {
		t.Errorf("SplitList(\"\") = %v, want empty", got)
	}
}

func TestNormalizeHeader(t *testing.T) {
	for _, input := range []string{"IV Contrast", "IV_Contrast", " iv  contrast "} {
		if got := NormalizeHeader(input); got != "iv contrast" {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", input, got, "iv contrast")
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := Truncate("a very long clinical history", 10); got != "a very ..." {
		t.Errorf("Truncate long = %q", got)
	}
	if got := Truncate("abc", 2); got != "ab" {
		t.Errorf("Truncate tiny = %q", got)
	}
}
