package governor

import (
	"time"

	"go.uber.org/zap"
)

// EffectsSwitch is the store surface the degrade policy needs.
type EffectsSwitch interface {
	EffectsEnabled() bool
	SetEffectsEnabled(bool)
}

// DegradePolicy disables effects when a window's mean exceeds budget.
// It never turns them back on, even if later windows are fast.
func DegradePolicy(sw EffectsSwitch, budget time.Duration, log *zap.Logger) WindowFunc {
	if log == nil {
		log = zap.NewNop()
	}
	threshold := float64(budget) / float64(time.Millisecond)
	return func(meanMS float64) error {
		if meanMS <= threshold || !sw.EffectsEnabled() {
			return nil
		}
		sw.SetEffectsEnabled(false)
		log.Info("effects disabled after sustained overrun",
			zap.Float64("mean_ms", meanMS),
			zap.Float64("budget_ms", threshold))
		return nil
	}
}
