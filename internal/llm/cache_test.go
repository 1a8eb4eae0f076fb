package llm

import (
	"context"
	"errors"
	"testing"
)

// countingEmbedder is a stub that records how many times Embed is called.
type countingEmbedder struct {
	calls int
	fail  bool
}

func (s *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("provider down")
	}
	return []float32{float32(len(text)), 1, 2}, nil
}

func (s *countingEmbedder) GetModel() string { return "stub" }

func TestCachingEmbedder_HitSkipsProvider(t *testing.T) {
	stub := &countingEmbedder{}
	c, err := NewCachingEmbedder(stub, 8)
	if err != nil {
		t.Fatalf("NewCachingEmbedder: %v", err)
	}

	ctx := context.Background()
	v1, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("first Embed: %v", err)
	}

	v2, err := c.Embed(ctx, "hello")
	if err != nil {
		t.Fatalf("second Embed: %v", err)
	}

	if stub.calls != 1 {
		t.Errorf("provider called %d times, want 1", stub.calls)
	}
	if len(v1) != len(v2) || v1[0] != v2[0] {
		t.Error("cached vector differs from original")
	}
}

func TestCachingEmbedder_ErrorsNotCached(t *testing.T) {
	stub := &countingEmbedder{fail: true}
	c, err := NewCachingEmbedder(stub, 8)
	if err != nil {
		t.Fatalf("NewCachingEmbedder: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Embed(ctx, "x"); err == nil {
		t.Fatal("expected error from failing provider")
	}

	stub.fail = false
	if _, err := c.Embed(ctx, "x"); err != nil {
		t.Fatalf("Embed after recovery: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("provider called %d times, want 2 (error must not be cached)", stub.calls)
	}
}
