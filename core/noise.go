package core

import "math/rand"

// NoiseModel perturbs a true distance into a measured one. Models draw from
// an explicitly passed generator so seeded runs stay bit-reproducible.
type NoiseModel func(trueDistance float64) float64

// NoNoise returns the true distance unchanged. It is the default model.
func NoNoise(trueDistance float64) float64 {
	return trueDistance
}

// GaussianNoise builds a model that adds zero-mean gaussian noise with the
// given standard deviation. Measured distances are clamped at zero; a range
// measurement can never be negative.
func GaussianNoise(stdDev float64, rng *rand.Rand) NoiseModel {
	if stdDev <= 0 {
		return NoNoise
	}
	return func(trueDistance float64) float64 {
		d := trueDistance + rng.NormFloat64()*stdDev
		if d < 0 {
			return 0
		}
		return d
	}
}
