package prompts

import (
	"context"
	"errors"
	"testing"
)

func TestServiceCreateAndGet(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	p, err := svc.Create(context.Background(), "triagem v1", "Classifique: {CONTEXTO}", "baseline", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := svc.Get(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "triagem v1" {
		t.Fatalf("unexpected name: %q", got.Name)
	}
}

func TestServiceCreateRejectsBlankName(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.Create(context.Background(), "   ", "content", "", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceCreateRejectsBlankContent(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.Create(context.Background(), "name", "", "", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestServiceGetMissing(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	_, err := svc.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
