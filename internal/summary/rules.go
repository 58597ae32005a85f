package summary

import "github.com/mrwolf/yojeum-server/internal/models"

// Input is everything a rule may look at
type Input struct {
	Energy    models.Energy
	Tags      []string // normalized
	Memo      string
	Recent    RecentContext
	Sentiment Sentiment
}

// Rule pairs a predicate with the pool it supplies. Rules are evaluated in order
// and the first match wins; later rules are never consulted.
type Rule struct {
	Name  string
	Match func(in Input) bool
	Pool  func(in Input) []string
}

func fixed(name string) func(Input) []string {
	return func(Input) []string { return Pool(name) }
}

func recurringTag(in Input) string {
	if len(in.Recent.FrequentTags) == 0 {
		return ""
	}
	return in.Recent.FrequentTags[0]
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ContextualRules apply when at least two prior days have records
var ContextualRules = []Rule{
	{
		Name: PoolSustainedLowContinuing,
		Match: func(in Input) bool {
			return in.Recent.EnergyPattern == PatternMostlyLow && in.Energy == models.EnergyLow
		},
		Pool: fixed(PoolSustainedLowContinuing),
	},
	{
		Name: PoolSustainedLowImproved,
		Match: func(in Input) bool {
			return in.Recent.EnergyPattern == PatternMostlyLow && in.Energy != models.EnergyLow
		},
		Pool: fixed(PoolSustainedLowImproved),
	},
	{
		Name: PoolSustainedHighContinuing,
		Match: func(in Input) bool {
			return in.Recent.EnergyPattern == PatternMostlyHigh && in.Energy == models.EnergyHigh
		},
		Pool: fixed(PoolSustainedHighContinuing),
	},
	{
		Name: PoolSustainedHighDropped,
		Match: func(in Input) bool {
			return in.Recent.EnergyPattern == PatternMostlyHigh && in.Energy == models.EnergyLow
		},
		Pool: fixed(PoolSustainedHighDropped),
	},
	{
		Name: PoolRecurringTagToday,
		Match: func(in Input) bool {
			tag := recurringTag(in)
			return tag != "" && hasTag(in.Tags, tag)
		},
		Pool: func(in Input) []string { return TagPool(PoolRecurringTagToday, recurringTag(in)) },
	},
	{
		Name: PoolRecurringTagAbsent,
		Match: func(in Input) bool {
			return len(in.Recent.FrequentTags) > 0
		},
		Pool: func(in Input) []string { return TagPool(PoolRecurringTagAbsent, recurringTag(in)) },
	},
	{
		Name:  PoolFallbackDifficult,
		Match: func(in Input) bool { return in.Sentiment == SentimentDifficult },
		Pool:  fixed(PoolFallbackDifficult),
	},
	{
		Name:  PoolFallbackPositive,
		Match: func(in Input) bool { return in.Sentiment == SentimentPositive },
		Pool:  fixed(PoolFallbackPositive),
	},
	{
		Name:  PoolFallbackOther,
		Match: func(Input) bool { return true },
		Pool:  fixed(PoolFallbackOther),
	},
}

// StandaloneRules apply when recent history is too thin to reference
var StandaloneRules = []Rule{
	{
		Name: PoolLowDifficult,
		Match: func(in Input) bool {
			return in.Energy == models.EnergyLow && in.Sentiment == SentimentDifficult
		},
		Pool: fixed(PoolLowDifficult),
	},
	{
		Name:  PoolLowOther,
		Match: func(in Input) bool { return in.Energy == models.EnergyLow },
		Pool:  fixed(PoolLowOther),
	},
	{
		Name:  PoolHigh,
		Match: func(in Input) bool { return in.Energy == models.EnergyHigh },
		Pool:  fixed(PoolHigh),
	},
	{
		Name:  PoolNeutralDifficult,
		Match: func(in Input) bool { return in.Sentiment == SentimentDifficult },
		Pool:  fixed(PoolNeutralDifficult),
	},
	{
		Name:  PoolNeutralOther,
		Match: func(Input) bool { return true },
		Pool:  fixed(PoolNeutralOther),
	},
}

// selectPool returns the first matching rule's name and pool.
// No match, or an empty pool, falls back to the generic pool.
func selectPool(rules []Rule, in Input) (string, []string) {
	for _, r := range rules {
		if !r.Match(in) {
			continue
		}
		if pool := r.Pool(in); len(pool) > 0 {
			return r.Name, pool
		}
		break
	}
	return PoolGeneric, Pool(PoolGeneric)
}
