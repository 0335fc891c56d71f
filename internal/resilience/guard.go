package resilience

import (
	"context"

	"github.com/emberfx/emberfx/pkg/eternal"
)

// Upstream is the generation API surface guarded by a breaker.
// *eternal.Client satisfies it.
type Upstream interface {
	ListEffects(ctx context.Context, effectType eternal.EffectType, page int) (*eternal.EffectPage, error)
	SubmitEffectJob(ctx context.Context, effectID string, images []string) (*eternal.Receipt, error)
	SubmitCustomJob(ctx context.Context, prompt string, outputType eternal.EffectType, images []string) (*eternal.Receipt, error)
	FetchBytes(ctx context.Context, rawURL string) ([]byte, string, error)
}

// GuardedAPI routes every upstream call through one shared [Breaker]. A run
// of consecutive failures on any operation trips the breaker for all of
// them, since they all hit the same service.
//
// Poll status checks are deliberately not guarded: a poll session already
// aborts on the first failed check, and rejecting checks while the breaker
// recovers would turn a recoverable blip into a stream of failed sessions.
type GuardedAPI struct {
	inner   Upstream
	breaker *Breaker
}

// Guard wraps upstream with the given breaker.
func Guard(upstream Upstream, breaker *Breaker) *GuardedAPI {
	return &GuardedAPI{inner: upstream, breaker: breaker}
}

func (g *GuardedAPI) ListEffects(ctx context.Context, effectType eternal.EffectType, page int) (*eternal.EffectPage, error) {
	var out *eternal.EffectPage
	err := g.breaker.Execute(func() error {
		var err error
		out, err = g.inner.ListEffects(ctx, effectType, page)
		return err
	})
	return out, err
}

func (g *GuardedAPI) SubmitEffectJob(ctx context.Context, effectID string, images []string) (*eternal.Receipt, error) {
	var out *eternal.Receipt
	err := g.breaker.Execute(func() error {
		var err error
		out, err = g.inner.SubmitEffectJob(ctx, effectID, images)
		return err
	})
	return out, err
}

func (g *GuardedAPI) SubmitCustomJob(ctx context.Context, prompt string, outputType eternal.EffectType, images []string) (*eternal.Receipt, error) {
	var out *eternal.Receipt
	err := g.breaker.Execute(func() error {
		var err error
		out, err = g.inner.SubmitCustomJob(ctx, prompt, outputType, images)
		return err
	})
	return out, err
}

func (g *GuardedAPI) FetchBytes(ctx context.Context, rawURL string) ([]byte, string, error) {
	var (
		out []byte
		ct  string
	)
	err := g.breaker.Execute(func() error {
		var err error
		out, ct, err = g.inner.FetchBytes(ctx, rawURL)
		return err
	})
	return out, ct, err
}
