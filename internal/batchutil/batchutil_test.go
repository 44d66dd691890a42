package batchutil

import (
	"context"
	"testing"
	"time"
)

func TestChunk(t *testing.T) {
	tests := []struct {
		name     string
		items    int
		size     int
		expected []int
	}{
		{"empty", 0, 25, nil},
		{"under one chunk", 10, 25, []int{10}},
		{"exact chunk", 25, 25, []int{25}},
		{"one over", 26, 25, []int{25, 1}},
		{"many chunks", 250, 100, []int{100, 100, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := make([]int, tt.items)
			for i := range items {
				items[i] = i
			}

			chunks := Chunk(items, tt.size)
			if len(chunks) != len(tt.expected) {
				t.Fatalf("expected %d chunks, got %d", len(tt.expected), len(chunks))
			}
			for i, want := range tt.expected {
				if len(chunks[i]) != want {
					t.Errorf("chunk %d: expected %d items, got %d", i, want, len(chunks[i]))
				}
			}
		})
	}
}

func TestChunk_PreservesOrder(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	chunks := Chunk(items, 2)

	flat := make([]string, 0, len(items))
	for _, c := range chunks {
		flat = append(flat, c...)
	}
	for i, v := range items {
		if flat[i] != v {
			t.Fatalf("expected order preserved, got %v", flat)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := BackoffDelay(tt.attempt); got != tt.expected {
			t.Errorf("attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestSleep_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := Sleep(ctx, 10*time.Second)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected immediate return, slept %v", elapsed)
	}
}

func TestSleep_ShortDelay(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
