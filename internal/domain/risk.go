package domain

// RiskPolicy is the operator-configured risk behaviour of the engine.
type RiskPolicy struct {
	// ForbidClosingTodayForIndexFutures turns an auto close into an open when
	// the venue would otherwise close today's index-future position.
	ForbidClosingTodayForIndexFutures bool `yaml:"forbid_closing_today_for_index_futures"`

	// MaxDailyOpeningVolume caps opened + freezing volume per index-future
	// class for the day. Negative disables the cap.
	MaxDailyOpeningVolume int64 `yaml:"max_daily_opening_volume_for_index_futures"`

	// IndexFutureClasses are the two-letter class prefixes the policy covers.
	IndexFutureClasses []string `yaml:"index_future_classes"`

	// OptionCodeLength is the longest code still treated as a plain future.
	// Option codes such as IO2208-C-4250.CFFEX are longer.
	OptionCodeLength int `yaml:"option_code_length"`
}

// DefaultRiskPolicy returns the policy used when nothing is configured: no
// cap, closing today allowed, the four CFFEX stock-index classes.
func DefaultRiskPolicy() RiskPolicy {
	return RiskPolicy{
		MaxDailyOpeningVolume: -1,
		IndexFutureClasses:    []string{"IF", "IH", "IC", "IM"},
		OptionCodeLength:      14,
	}
}

// InstrumentClass returns the two-letter class prefix of code, or "" for
// codes too short to carry one.
func InstrumentClass(code string) string {
	if len(code) > 2 {
		return code[:2]
	}
	return ""
}
