package remote

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/julianstephens/ibadah/internal/models"
)

// Throttled wraps a Provider so writes share one token bucket. Reads pass
// straight through.
type Throttled struct {
	Provider
	limiter *rate.Limiter
}

// Throttle limits writes on p to perSecond with the given burst. A
// non-positive rate returns p unchanged.
func Throttle(p Provider, perSecond float64, burst int) Provider {
	if perSecond <= 0 {
		return p
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttled{Provider: p, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *Throttled) EnsureUser(ctx context.Context, uid string, profile models.Profile) (*UserDocument, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return t.Provider.EnsureUser(ctx, uid, profile)
}

func (t *Throttled) MergeUser(ctx context.Context, uid string, patch UserPatch) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Provider.MergeUser(ctx, uid, patch)
}

func (t *Throttled) SetFasting(ctx context.Context, uid, date string, fasted bool, streak int) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Provider.SetFasting(ctx, uid, date, fasted, streak)
}

func (t *Throttled) SaveDailyLog(ctx context.Context, uid string, log DailyLog) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.Provider.SaveDailyLog(ctx, uid, log)
}
