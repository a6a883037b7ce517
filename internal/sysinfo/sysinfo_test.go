package sysinfo

import (
	"context"
	"testing"
)

func TestParseGPUNames(t *testing.T) {
	tests := []struct {
		name      string
		out       string
		wantCount int
		wantModel string
	}{
		{"no gpu", "", 0, ""},
		{"single", "NVIDIA GeForce RTX 3080\n", 1, "NVIDIA GeForce RTX 3080"},
		{"multiple", "NVIDIA A100-SXM4-40GB\nNVIDIA A100-SXM4-40GB\n", 2, "2 x NVIDIA A100-SXM4-40GB"},
		{"blank lines", "\nNVIDIA T4\n\n", 1, "NVIDIA T4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, model := parseGPUNames(tt.out)
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if model != tt.wantModel {
				t.Errorf("model = %q, want %q", model, tt.wantModel)
			}
		})
	}
}

func TestCollect_IsCached(t *testing.T) {
	c := NewCollector(nil)
	first := c.Collect(context.Background())
	second := c.Collect(context.Background())
	if first != second {
		t.Error("Collect() should return the cached snapshot on repeat calls")
	}
}
