package summary

import (
	"fmt"
	"strings"
)

// Pool names. Contextual pools first, then standalone ones.
const (
	PoolSustainedLowContinuing  = "sustained_low_continuing"
	PoolSustainedLowImproved    = "sustained_low_improved"
	PoolSustainedHighContinuing = "sustained_high_continuing"
	PoolSustainedHighDropped    = "sustained_high_dropped"
	PoolRecurringTagToday       = "recurring_tag_today"
	PoolRecurringTagAbsent      = "recurring_tag_absent"
	PoolFallbackDifficult       = "fallback_difficult"
	PoolFallbackPositive        = "fallback_positive"
	PoolFallbackOther           = "fallback_other"
	PoolGeneric                 = "generic"

	PoolLowDifficult     = "low_difficult"
	PoolLowOther         = "low_other"
	PoolHigh             = "high"
	PoolNeutralDifficult = "neutral_difficult"
	PoolNeutralOther     = "neutral_other"
)

// pools holds the fixed sentences per category. Never mutated.
var pools = map[string][]string{
	PoolSustainedLowContinuing: {
		"요즘 계속 힘든 시간이었던 걸 생각하면, 오늘도 쉽지 않았을 것 같아. 그래도 여기까지 온 걸로 충분해.",
		"최근 며칠을 보면, 오늘도 버티는 것 자체가 애쓴 거야.",
		"요즘 흐름 속에서 오늘도 하루를 마무리했다는 것만으로도 괜찮아.",
	},
	PoolSustainedLowImproved: {
		"요즘 힘들었던 것 같은데, 오늘은 조금 나아진 것 같아 다행이야.",
		"최근 며칠을 생각하면, 오늘은 조금 숨통이 트인 느낌이야.",
		"요즘 계속 버거웠는데, 오늘은 그래도 괜찮은 하루였던 것 같아.",
	},
	PoolSustainedHighContinuing: {
		"요즘 계속 바쁘게 달려온 것 같아. 오늘도 열심히 보냈구나.",
		"최근 흐름을 보면, 오늘도 집중해서 하루를 채운 것 같아.",
		"요즘 계속 움직이고 있었는데, 오늘도 그 흐름이 이어진 하루야.",
	},
	PoolSustainedHighDropped: {
		"요즘 계속 바빴던 걸 생각하면, 오늘은 좀 쉬고 싶었을 것 같아.",
		"최근 계속 달려왔으니, 오늘은 피곤했을 만도 해.",
		"요즘 흐름을 보면, 오늘은 한숨 돌리는 시간이 필요했던 것 같아.",
	},
	PoolFallbackDifficult: {
		"요즘 흐름 속에서 오늘도 쉽지 않은 하루였던 것 같아. 그래도 여기까지 왔어.",
		"최근 며칠을 보면, 오늘도 너 나름대로 하루를 버텨낸 것 같아.",
		"요즘도 그렇고 오늘도 그렇고, 조용히 애쓰고 있는 것 같아.",
	},
	PoolFallbackPositive: {
		"최근 며칠을 보면, 오늘도 괜찮은 하루를 보낸 것 같아.",
		"요즘 흐름 속에서 오늘도 나름대로 의미 있는 시간이었던 것 같아.",
		"큰 말은 없었지만, 요즘도 오늘도 잘 지내고 있는 것 같아.",
	},
	PoolFallbackOther: {
		"큰 말은 없었지만, 요즘 흐름 속에서 오늘도 조용히 애쓴 하루였던 것 같아.",
		"최근 며칠을 보면, 오늘도 너 나름대로 하루를 채운 것 같아.",
		"요즘도 그렇고 오늘도 그렇고, 그냥 하루하루 지나가고 있구나.",
		"최근 흐름 속에서 오늘도 조용히 하루를 마무리했어.",
	},
	PoolGeneric: {
		"최근 며칠을 보면, 오늘도 너 나름대로 하루를 보낸 것 같아.",
		"요즘 흐름 속에서 오늘도 하루를 마무리했구나.",
	},

	PoolLowDifficult: {
		"오늘은 쉽지 않은 하루였던 것 같아. 그래도 여기까지 온 걸로 충분해.",
		"힘든 하루를 보냈구나. 그것만으로도 잘한 거야.",
		"버거운 하루였을 것 같아. 고생했어.",
	},
	PoolLowOther: {
		"오늘은 조용히 쉬어가는 하루였던 것 같아.",
		"오늘은 에너지를 아끼며 보낸 하루였구나.",
		"피곤한 하루였을 것 같아. 괜찮아.",
	},
	PoolHigh: {
		"오늘은 집중해서 하루를 보낸 것 같아.",
		"활기차게 하루를 채운 것 같아.",
		"오늘은 열심히 움직인 하루였구나.",
	},
	PoolNeutralDifficult: {
		"오늘은 나름대로 버텨낸 하루였던 것 같아.",
		"쉽지만은 않았지만, 하루를 마무리했구나.",
	},
	PoolNeutralOther: {
		"오늘도 그냥 하루가 지나갔구나.",
		"오늘은 그렇게 하루를 보냈어.",
		"평범하게 하루를 마무리했구나.",
	},
}

// tagPools are filled with the recurring tag before selection
var tagPools = map[string][]string{
	PoolRecurringTagToday: {
		"요즘 계속 %s 중심으로 하루를 보내고 있는 것 같아. 오늘도 그런 하루였구나.",
		"최근 며칠을 보면, %s이 계속 너의 주요 관심사였던 것 같아.",
		"요즘 %s에 집중하고 있는 것 같아. 오늘도 그 흐름 속에 있었구나.",
	},
	PoolRecurringTagAbsent: {
		"요즘은 주로 %s를 중심으로 보냈는데, 오늘은 조금 다른 하루였던 것 같아.",
		"최근 흐름과는 조금 다르게, 오늘은 나름의 하루를 보낸 것 같아.",
	},
}

// Pool returns a copy of the named fixed pool
func Pool(name string) []string {
	return append([]string(nil), pools[name]...)
}

// TagPool returns the named tag pool filled with tag
func TagPool(name, tag string) []string {
	templates := tagPools[name]
	out := make([]string, len(templates))
	for i, t := range templates {
		if !strings.Contains(t, "%s") {
			out[i] = t
			continue
		}
		out[i] = fmt.Sprintf(t, tag)
	}
	return out
}

// pick is the only randomness surrogate: seed modulo pool length
func pick(pool []string, seed int) string {
	if len(pool) == 0 {
		return ""
	}
	idx := seed % len(pool)
	if idx < 0 {
		idx += len(pool)
	}
	return pool[idx]
}
