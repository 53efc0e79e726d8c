package engine

import (
	"log/slog"

	"futures_go/internal/domain"
)

// RiskGate enforces the daily opening cap for index futures. It keeps, per
// instrument class, the volume opened today plus the volume still frozen by
// live open orders. The cache lives as long as the process, i.e. one trading day.
type RiskGate struct {
	policy  domain.RiskPolicy
	classes map[string]struct{}
	cache   map[string]int64
}

// NewRiskGate creates a gate for policy.
func NewRiskGate(policy domain.RiskPolicy) *RiskGate {
	classes := make(map[string]struct{}, len(policy.IndexFutureClasses))
	for _, c := range policy.IndexFutureClasses {
		classes[c] = struct{}{}
	}
	return &RiskGate{
		policy:  policy,
		classes: classes,
		cache:   make(map[string]int64),
	}
}

// indexClass returns the class of code when the policy covers it.
// Options (codes longer than OptionCodeLength) are never covered.
func (g *RiskGate) indexClass(code string) (string, bool) {
	if len(code) > g.policy.OptionCodeLength {
		return "", false
	}
	class := domain.InstrumentClass(code)
	if _, ok := g.classes[class]; !ok {
		return "", false
	}
	return class, true
}

// IsIndexFuture reports whether code is a plain future of a covered class.
func (g *RiskGate) IsIndexFuture(code string) bool {
	_, ok := g.indexClass(code)
	return ok
}

// Check returns a *domain.RiskRejection when opening volume more lots of
// code would exceed the cap. It does not change the cache.
func (g *RiskGate) Check(code string, flag domain.OcFlag, volume int64) error {
	if flag != domain.OcOpen || g.policy.MaxDailyOpeningVolume < 0 {
		return nil
	}
	class, ok := g.indexClass(code)
	if !ok {
		return nil
	}
	current := g.cache[class]
	if current+volume > g.policy.MaxDailyOpeningVolume {
		return &domain.RiskRejection{
			Code:      code,
			Class:     class,
			Attempted: volume,
			Current:   current,
			Cap:       g.policy.MaxDailyOpeningVolume,
		}
	}
	return nil
}

// Record advances the class total by an open order's new frozen volume
// minus its withdrawn volume. Matches move volume from frozen to opened and
// leave the total unchanged.
func (g *RiskGate) Record(code string, d Deltas) {
	if d.Order == 0 && d.Withdraw == 0 {
		return
	}
	class, ok := g.indexClass(code)
	if !ok {
		return
	}
	g.cache[class] += d.Order - d.Withdraw
	slog.Debug("opening volume updated",
		slog.String("class", class),
		slog.Int64("total", g.cache[class]))
}

// OpenVolume returns the cached total of class.
func (g *RiskGate) OpenVolume(class string) int64 {
	return g.cache[class]
}

func (g *RiskGate) snapshot() map[string]int64 {
	out := make(map[string]int64, len(g.cache))
	for k, v := range g.cache {
		out[k] = v
	}
	return out
}
