package fallback

import (
	"context"
	"errors"
	"testing"
)

type fakeProvider struct {
	name      string
	available bool
	result    string
	err       error
	calls     int
}

func (p *fakeProvider) Name() string    { return p.name }
func (p *fakeProvider) Available() bool { return p.available }

func run(providers []*fakeProvider) (string, string, error) {
	return Run(context.Background(), "test", providers, func(_ context.Context, p *fakeProvider) (string, error) {
		p.calls++
		return p.result, p.err
	})
}

func TestRun_FirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", available: true, result: "from-first"}
	second := &fakeProvider{name: "second", available: true, result: "from-second"}

	result, name, err := run([]*fakeProvider{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "from-first" {
		t.Errorf("expected result from first provider, got %s", result)
	}
	if name != "first" {
		t.Errorf("expected winning provider 'first', got %s", name)
	}
	if second.calls != 0 {
		t.Errorf("second provider should not have been called, got %d calls", second.calls)
	}
}

func TestRun_FailureFallsThrough(t *testing.T) {
	first := &fakeProvider{name: "first", available: true, err: errors.New("boom")}
	second := &fakeProvider{name: "second", available: true, result: "from-second"}

	result, name, err := run([]*fakeProvider{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "from-second" {
		t.Errorf("expected result from second provider, got %s", result)
	}
	if name != "second" {
		t.Errorf("expected winning provider 'second', got %s", name)
	}
	if first.calls != 1 {
		t.Errorf("first provider should have been tried once, got %d calls", first.calls)
	}
}

func TestRun_UnavailableProvidersSkipped(t *testing.T) {
	first := &fakeProvider{name: "first", available: false, result: "from-first"}
	second := &fakeProvider{name: "second", available: true, result: "from-second"}

	result, _, err := run([]*fakeProvider{first, second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "from-second" {
		t.Errorf("expected result from second provider, got %s", result)
	}
	if first.calls != 0 {
		t.Errorf("unavailable provider should not have been called, got %d calls", first.calls)
	}
}

func TestRun_AllFail(t *testing.T) {
	first := &fakeProvider{name: "first", available: true, err: errors.New("boom1")}
	second := &fakeProvider{name: "second", available: true, err: errors.New("boom2")}

	_, _, err := run([]*fakeProvider{first, second})
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted, got %v", err)
	}
}

func TestRun_NoProviders(t *testing.T) {
	_, _, err := run(nil)
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("expected ErrExhausted for empty chain, got %v", err)
	}
}
