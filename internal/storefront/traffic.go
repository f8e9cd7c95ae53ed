package storefront

import opensimplex "github.com/ojrac/opensimplex-go"

// TrafficCurve maps game time to a smooth foot-traffic factor in
// [0.5, 1.5]. Layered simplex noise over the elapsed-minute axis gives
// believable quiet mornings and busy runs without a scripted schedule.
type TrafficCurve struct {
	noise opensimplex.Noise
}

// NewTrafficCurve builds a deterministic curve for the given seed.
func NewTrafficCurve(seed int64) *TrafficCurve {
	return &TrafficCurve{noise: opensimplex.NewNormalized(seed)}
}

// Factor returns the traffic multiplier for a point in game time,
// expressed as total elapsed minutes.
func (t *TrafficCurve) Factor(totalMinutes float64) float64 {
	// Two octaves: a slow day-scale swell plus an hour-scale ripple.
	x := totalMinutes / (24 * 60)
	v := t.noise.Eval2(x, 0)*0.7 + t.noise.Eval2(x*24, 100)*0.3
	return 0.5 + v
}
