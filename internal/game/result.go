package game

import "times-table-circuit/internal/domain"

// NewResult scores a finished round.
func NewResult(score, total int) domain.Result {
	percent := 0
	if total > 0 {
		// rounded half up
		percent = (score*200 + total) / (2 * total)
	}
	return domain.Result{
		Score:         score,
		Total:         total,
		Percent:       percent,
		Encouragement: Encourage(score, total),
	}
}

// Encourage picks the results banner for a score.
func Encourage(score, total int) domain.Encouragement {
	if total <= 0 {
		return tiers[len(tiers)-1].banner
	}
	for _, tier := range tiers {
		// score/total >= tier.min/100 without float rounding
		if score*100 >= tier.min*total {
			return tier.banner
		}
	}
	return tiers[len(tiers)-1].banner
}

var tiers = []struct {
	min    int
	banner domain.Encouragement
}{
	{100, domain.Encouragement{
		Message:    "PERFECT CIRCUIT!",
		Emoji:      "⚡🏆⚡",
		SubMessage: "Every connection was spot on! You're an electrical genius!",
	}},
	{80, domain.Encouragement{
		Message:    "SUPER CHARGED!",
		Emoji:      "🌟⚡🌟",
		SubMessage: "Almost perfect! Your circuits are blazing!",
	}},
	{60, domain.Encouragement{
		Message:    "POWERED UP!",
		Emoji:      "💡✨",
		SubMessage: "Great work! Keep practising to power up even more!",
	}},
	{40, domain.Encouragement{
		Message:    "GETTING BRIGHTER!",
		Emoji:      "💡",
		SubMessage: "Nice try! A few more goes and you'll light up every bulb!",
	}},
	{0, domain.Encouragement{
		Message:    "KEEP SPARKING!",
		Emoji:      "✨",
		SubMessage: "Every wrong answer teaches you something! Try again!",
	}},
}
