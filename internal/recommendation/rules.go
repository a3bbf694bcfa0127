package recommendation

import "example.com/hydration/internal/domain"

const (
	lateBehindThresholdMl   = -400
	strongBehindThresholdMl = -800
	largePortionMl          = 400
	rareIntakeGapMinutes    = 120
	activityBonusMl         = 300
)

// facts is what the intake rules are evaluated against.
type facts struct {
	deviation   *int
	volumeMl    int
	hasPrevious bool
	gapMinutes  float64
}

type rule struct {
	kind     domain.RecommendationType
	severity domain.Severity
	message  string
	// dedupe suppresses the rule when the intake already carries a recommendation of this kind.
	dedupe bool
	fires  func(facts) bool
}

func deviationIn(check func(int) bool) func(facts) bool {
	return func(f facts) bool {
		return f.deviation != nil && check(*f.deviation)
	}
}

var intakeRules = []rule{
	{
		kind:     domain.RecommendationLateBehind,
		severity: domain.SeverityMedium,
		message:  "You are behind your hydration schedule. Drink a small portion of water now.",
		dedupe:   true,
		fires:    deviationIn(func(d int) bool { return d < lateBehindThresholdMl }),
	},
	{
		kind:     domain.RecommendationStrongBehind,
		severity: domain.SeverityHigh,
		message:  "You are far behind your hydration schedule. Drink more water right away.",
		dedupe:   true,
		fires:    deviationIn(func(d int) bool { return d < strongBehindThresholdMl }),
	},
	{
		kind:     domain.RecommendationTooLargePortion,
		severity: domain.SeverityMedium,
		message:  "Your portions are too large. Smaller, more frequent intakes are absorbed better.",
		fires:    func(f facts) bool { return f.volumeMl > largePortionMl },
	},
	{
		kind:     domain.RecommendationGoodPace,
		severity: domain.SeverityLow,
		message:  "You are keeping to your hydration schedule. Keep it up.",
		dedupe:   true,
		fires:    deviationIn(func(d int) bool { return d >= -100 && d <= 100 }),
	},
	{
		kind:     domain.RecommendationExcellentPace,
		severity: domain.SeverityLow,
		message:  "You are ahead of your hydration schedule. Great work.",
		dedupe:   true,
		fires:    deviationIn(func(d int) bool { return d > 0 && d < 200 }),
	},
	{
		kind:     domain.RecommendationTooRareIntakes,
		severity: domain.SeverityMedium,
		message:  "You drink too rarely. Try drinking more often in small portions.",
		fires:    func(f facts) bool { return f.hasPrevious && f.gapMinutes > rareIntakeGapMinutes },
	},
}

var activityRule = rule{
	kind:     domain.RecommendationActivityExtraWater,
	severity: domain.SeverityMedium,
	message:  "After physical activity, drink extra water to recover.",
	dedupe:   true,
	fires:    func(facts) bool { return true },
}
