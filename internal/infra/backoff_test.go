package infra

import (
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retry int
		max   time.Duration
	}{
		{-1, 1 * time.Second},
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{6, 60 * time.Second},
		{50, 60 * time.Second},
	}

	for _, tt := range tests {
		got := CalculateBackoff(tt.retry)
		min := tt.max - tt.max/5
		if got > tt.max || got < min {
			t.Errorf("CalculateBackoff(%d) = %v, want within [%v, %v]", tt.retry, got, min, tt.max)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("DEBUG").String() != "DEBUG" {
		t.Error("expected debug level")
	}
	if ParseLevel("unknown").String() != "INFO" {
		t.Error("expected info fallback")
	}
}
