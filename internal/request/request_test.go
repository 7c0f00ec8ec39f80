package request

import (
	"context"
	"testing"
	"time"
)

func TestNewValidatesInputs(t *testing.T) {
	if _, err := New("audio", "/tmp/song.mp3", Metadata{}); err == nil {
		t.Error("expected error for unknown item type")
	}
	if _, err := New(ItemImage, "   ", Metadata{}); err == nil {
		t.Error("expected error for blank source path")
	}

	var meta Metadata
	meta.Set(MetaSource, "test")
	req, err := New(ItemImage, "/tmp/photo.png", meta)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if req.ID == "" {
		t.Error("expected generated request ID")
	}
	if req.SourcePath != "/tmp/photo.png" {
		t.Errorf("unexpected source path %q", req.SourcePath)
	}

	other, err := New(ItemImage, "/tmp/photo.png", meta)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if other.ID == req.ID {
		t.Error("expected unique IDs per request")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusSucceeded, StatusUnsupported, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusQueued, StatusRunning, Status("bogus")} {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestTicketResolvesOnce(t *testing.T) {
	ticket := NewTicket("req-1")

	if _, ok := ticket.Result(); ok {
		t.Fatal("unresolved ticket reported a result")
	}
	if ticket.Resolve(nil) {
		t.Fatal("nil result must not resolve the ticket")
	}

	first := &Result{RequestID: "req-1", Status: StatusSucceeded, OutputPath: "/tmp/a"}
	if !ticket.Resolve(first) {
		t.Fatal("first resolve rejected")
	}
	if ticket.Resolve(&Result{RequestID: "req-1", Status: StatusFailed}) {
		t.Fatal("second resolve accepted")
	}

	result, ok := ticket.Result()
	if !ok || result.Status != StatusSucceeded {
		t.Fatalf("expected first result to win, got %+v", result)
	}

	select {
	case <-ticket.Done():
	default:
		t.Fatal("done channel not closed after resolve")
	}
}

func TestTicketWait(t *testing.T) {
	ticket := NewTicket("req-2")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := ticket.Wait(ctx); err == nil {
		t.Fatal("expected context error while unresolved")
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		ticket.Resolve(&Result{RequestID: "req-2", Status: StatusCancelled})
	}()

	result, err := ticket.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if result.Status != StatusCancelled {
		t.Fatalf("unexpected result %+v", result)
	}
}
