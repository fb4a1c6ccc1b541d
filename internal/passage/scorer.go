package passage

// ScoreConfig holds the multipliers for the non-primary tiers. Primary
// terms always count at full weight.
type ScoreConfig struct {
	AdjacentWeight  float64
	SecondaryWeight float64
	BigramWeight    float64
}

func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{AdjacentWeight: 0.5, SecondaryWeight: 0.25, BigramWeight: 1.0}
}

type tier struct {
	zones      []Zone
	bigrams    bool
	multiplier float64
}

func (c ScoreConfig) tiers() []tier {
	return []tier{
		{zones: []Zone{ZonePrimary}, multiplier: 1},
		{zones: []Zone{ZonePrevious, ZoneFollowing}, multiplier: c.AdjacentWeight},
		{zones: []Zone{ZoneSecondaryPrevious, ZoneSecondaryFollowing}, multiplier: c.SecondaryWeight},
		{zones: []Zone{ZoneBigram}, bigrams: true, multiplier: c.BigramWeight},
	}
}

// Score sums the weights of the distinct query terms and bigrams found in
// the builder. Tiers are visited strongest first and each term counts once,
// in the first tier where it appears.
func Score(b *Builder, w Weights, cfg ScoreConfig) float64 {
	covered := make(map[string]struct{})
	var score float64
	for _, t := range cfg.tiers() {
		weights := w.Terms
		if t.bigrams {
			weights = w.Bigrams
		}
		for _, zone := range t.zones {
			for _, wt := range b.Terms(zone) {
				if _, ok := covered[wt.Term]; ok {
					continue
				}
				weight, ok := weights[wt.Term]
				if !ok {
					continue
				}
				covered[wt.Term] = struct{}{}
				score += weight * t.multiplier
			}
		}
	}
	return score
}
