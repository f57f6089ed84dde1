package genotype

import (
	"math/rand"
	"strings"
)

// NeuralWeightParam bundles a synaptic weight with its plasticity bookkeeping:
// the running delta from the last learning step, a learning-progress scalar
// some plasticity rules use to modulate their own rate, and whatever
// per-weight parameter vector the active plasticity rule needs.
type NeuralWeightParam struct {
	Weight           float64
	DeltaWeight      float64
	LearningProgress float64
	PlasticityParams []float64
}

// InputIDP pairs an upstream element ID with the weight vector it
// contributes, one entry per incoming line.
type InputIDP struct {
	FromID  string
	Weights []NeuralWeightParam
}

// CreateWeight draws a single weight uniformly from the standard centered
// initialization range.
func CreateWeight(rng *rand.Rand) float64 {
	return randomCentered(ensureRNG(rng))
}

// CreateNeuralWeightsP builds count freshly-initialized weights, each seeded
// with zero delta/learning-progress and a plasticity parameter vector shaped
// for pfRule. A non-positive count yields no weights.
func CreateNeuralWeightsP(pfRule string, count int, rng *rand.Rand) []NeuralWeightParam {
	if count <= 0 {
		return nil
	}
	rng = ensureRNG(rng)
	params := make([]NeuralWeightParam, count)
	for i := range params {
		params[i] = NeuralWeightParam{
			Weight:           CreateWeight(rng),
			PlasticityParams: defaultPFWeightParameters(pfRule, rng),
		}
	}
	return params
}

// CreateInputIDPs builds one InputIDP per inputSpecs entry, skipping any
// spec with a blank source ID or non-positive fan-in width.
func CreateInputIDPs(pfRule string, inputSpecs []InputSpec, rng *rand.Rand) []InputIDP {
	rng = ensureRNG(rng)
	idps := make([]InputIDP, 0, len(inputSpecs))
	for _, spec := range inputSpecs {
		fromID := strings.TrimSpace(spec.FromID)
		if fromID == "" || spec.Width <= 0 {
			continue
		}
		idps = append(idps, InputIDP{
			FromID:  fromID,
			Weights: CreateNeuralWeightsP(pfRule, spec.Width, rng),
		})
	}
	return idps
}
