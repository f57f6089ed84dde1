package genotype

import (
	"math/rand"

	"bardo/internal/model"
	"bardo/internal/nn"
)

// defaultPFNeuralParameters seeds the per-neuron parameter vector a
// plasticity rule reads from Neuron.Plasticity* fields, sized and
// initialized to whatever that rule expects.
func defaultPFNeuralParameters(rule string, rng *rand.Rand) []float64 {
	switch nn.NormalizePlasticityRuleName(rule) {
	case nn.PlasticityNone, nn.PlasticityHebbianW, nn.PlasticityOjaW, nn.PlasticitySelfModulationV6:
		return nil
	case nn.PlasticityHebbian, nn.PlasticityOja:
		return []float64{randomCentered(rng)}
	case nn.PlasticitySelfModulationV1:
		return []float64{0.1, 0, 0, 0}
	case nn.PlasticitySelfModulationV2:
		return []float64{randomCentered(rng), 0, 0, 0}
	case nn.PlasticitySelfModulationV3:
		return []float64{randomCentered(rng), randomCentered(rng), randomCentered(rng), randomCentered(rng)}
	case nn.PlasticitySelfModulationV4:
		return []float64{0, 0, 0}
	case nn.PlasticitySelfModulationV5:
		return []float64{randomCentered(rng), randomCentered(rng), randomCentered(rng)}
	case nn.PlasticityNeuromodulation:
		return []float64{randomCentered(rng), randomCentered(rng), randomCentered(rng), randomCentered(rng), randomCentered(rng)}
	default:
		return nil
	}
}

// defaultPFWeightParameters seeds the per-weight parameter vector a
// plasticity rule reads from NeuralWeightParam.PlasticityParams.
func defaultPFWeightParameters(rule string, rng *rand.Rand) []float64 {
	width := defaultPFWeightParameterWidth(rule)
	if width <= 0 {
		return nil
	}
	params := make([]float64, width)
	for i := range params {
		params[i] = randomCentered(rng)
	}
	return params
}

func defaultPFWeightParameterWidth(rule string) int {
	switch nn.NormalizePlasticityRuleName(rule) {
	case nn.PlasticityHebbianW, nn.PlasticityOjaW:
		return 1
	case nn.PlasticitySelfModulationV1, nn.PlasticitySelfModulationV2, nn.PlasticitySelfModulationV3:
		return 1
	case nn.PlasticitySelfModulationV4, nn.PlasticitySelfModulationV5:
		return 2
	case nn.PlasticitySelfModulationV6:
		return 5
	default:
		return 0
	}
}

// applyPFNeuralParams projects a plasticity rule's neural parameter vector
// onto the named Neuron.Plasticity* fields the runtime reads, per the
// shape that rule expects.
func applyPFNeuralParams(neuron *model.Neuron, rule string, params []float64) {
	if neuron == nil {
		return
	}
	rule = nn.NormalizePlasticityRuleName(rule)
	if rule == nn.PlasticityNone {
		neuron.PlasticityRule = ""
		return
	}
	neuron.PlasticityRule = rule

	switch rule {
	case nn.PlasticityHebbian, nn.PlasticityOja:
		if len(params) > 0 {
			neuron.PlasticityRate = params[0]
		}
	case nn.PlasticityHebbianW, nn.PlasticityOjaW:
		neuron.PlasticityRate = 0.1
	case nn.PlasticityNeuromodulation:
		neuron.PlasticityRate = pickParamOrDefault(params, 0, 0.1)
		neuron.PlasticityA = pickParamOrDefault(params, 1, 0)
		neuron.PlasticityB = pickParamOrDefault(params, 2, 0)
		neuron.PlasticityC = pickParamOrDefault(params, 3, 0)
		neuron.PlasticityD = pickParamOrDefault(params, 4, 0)
	case nn.PlasticitySelfModulationV1, nn.PlasticitySelfModulationV2, nn.PlasticitySelfModulationV3:
		neuron.PlasticityRate = 1
		neuron.PlasticityA = pickParamOrDefault(params, 0, 0.1)
		neuron.PlasticityB = pickParamOrDefault(params, 1, 0)
		neuron.PlasticityC = pickParamOrDefault(params, 2, 0)
		neuron.PlasticityD = pickParamOrDefault(params, 3, 0)
	case nn.PlasticitySelfModulationV4, nn.PlasticitySelfModulationV5:
		neuron.PlasticityRate = 1
		neuron.PlasticityA = 0
		neuron.PlasticityB = pickParamOrDefault(params, 0, 0)
		neuron.PlasticityC = pickParamOrDefault(params, 1, 0)
		neuron.PlasticityD = pickParamOrDefault(params, 2, 0)
	case nn.PlasticitySelfModulationV6:
		neuron.PlasticityRate = 1
	}
}

func pickParamOrDefault(values []float64, index int, fallback float64) float64 {
	if index >= 0 && index < len(values) {
		return values[index]
	}
	return fallback
}
