package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emberfx/emberfx/pkg/eternal"
	"github.com/emberfx/emberfx/pkg/eternal/mock"
)

func newGuard(api *mock.Client, maxFailures int) *GuardedAPI {
	return Guard(api, NewBreaker(BreakerConfig{
		Name:         "eternal",
		MaxFailures:  maxFailures,
		ResetTimeout: time.Hour,
	}))
}

func TestGuardedAPI_ForwardsResults(t *testing.T) {
	api := &mock.Client{
		ListEffectsResult:  &eternal.EffectPage{Page: 1, Total: 2},
		SubmitEffectResult: &eternal.Receipt{RequestID: "abc123"},
		SubmitCustomResult: &eternal.Receipt{RequestID: "vid-7"},
		FetchBytesResult:   []byte("png bytes"),
	}
	g := newGuard(api, 3)
	ctx := context.Background()

	page, err := g.ListEffects(ctx, eternal.EffectImage, 1)
	if err != nil || page.Total != 2 {
		t.Errorf("ListEffects = (%v, %v)", page, err)
	}

	receipt, err := g.SubmitEffectJob(ctx, "cartoonify", nil)
	if err != nil || receipt.RequestID != "abc123" {
		t.Errorf("SubmitEffectJob = (%v, %v)", receipt, err)
	}

	receipt, err = g.SubmitCustomJob(ctx, "a fox", eternal.EffectVideo, nil)
	if err != nil || receipt.RequestID != "vid-7" {
		t.Errorf("SubmitCustomJob = (%v, %v)", receipt, err)
	}

	data, _, err := g.FetchBytes(ctx, "https://x/y.png")
	if err != nil || string(data) != "png bytes" {
		t.Errorf("FetchBytes = (%q, %v)", data, err)
	}
}

func TestGuardedAPI_SharedBreakerTripsAcrossOperations(t *testing.T) {
	api := &mock.Client{
		ListEffectsErr:  errors.New("503"),
		SubmitEffectErr: errors.New("503"),
	}
	g := newGuard(api, 2)
	ctx := context.Background()

	// Two failures on different operations trip the shared breaker.
	if _, err := g.ListEffects(ctx, "", 1); err == nil {
		t.Fatal("expected upstream error")
	}
	if _, err := g.SubmitEffectJob(ctx, "x", nil); err == nil {
		t.Fatal("expected upstream error")
	}

	// The third call is rejected without reaching the upstream.
	before := api.Calls()
	_, _, err := g.FetchBytes(ctx, "https://x/y.png")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	if api.Calls() != before {
		t.Errorf("upstream was called while breaker open")
	}
}

func TestGuardedAPI_SuccessKeepsBreakerClosed(t *testing.T) {
	api := &mock.Client{}
	g := newGuard(api, 2)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := g.ListEffects(ctx, "", 1); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if g.breaker.State() != StateClosed {
		t.Errorf("state = %v, want closed", g.breaker.State())
	}
}
