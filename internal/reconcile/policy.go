package reconcile

// Policy tunes the fuzzy step of the cascade.
type Policy struct {
	// FuzzyThreshold is the minimum combined score a fuzzy match needs.
	FuzzyThreshold float64
	// ArtistBonus is added to the title score when the normalized artist
	// appears inside the normalized file body.
	ArtistBonus float64
}

// DefaultPolicy returns the standard thresholds.
func DefaultPolicy() Policy {
	return Policy{
		FuzzyThreshold: 0.65,
		ArtistBonus:    0.15,
	}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.FuzzyThreshold <= 0 {
		p.FuzzyThreshold = def.FuzzyThreshold
	}
	if p.ArtistBonus < 0 {
		p.ArtistBonus = def.ArtistBonus
	}
	return p
}
