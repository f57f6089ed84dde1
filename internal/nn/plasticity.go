package nn

import (
	"fmt"
	"math"
	"strings"

	"bardo/internal/model"
)

// Plasticity rule names, as stored on a genome's Plasticity config or a
// neuron's PlasticityRule override.
const (
	PlasticityNone             = "none"
	PlasticityHebbian          = "hebbian"
	PlasticityHebbianW         = "hebbian_w"
	PlasticityOja              = "oja"
	PlasticityOjaW             = "ojas_w"
	PlasticityNeuromodulation  = "neuromodulation"
	PlasticitySelfModulationV1 = "self_modulationv1"
	PlasticitySelfModulationV2 = "self_modulationv2"
	PlasticitySelfModulationV3 = "self_modulationv3"
	PlasticitySelfModulationV4 = "self_modulationv4"
	PlasticitySelfModulationV5 = "self_modulationv5"
	PlasticitySelfModulationV6 = "self_modulationv6"
)

// NormalizePlasticityRuleName maps a loosely-formatted rule name (case,
// whitespace, underscore-vs-no-underscore variants) onto the canonical
// constant, falling through unrecognized names unchanged so callers can
// report the original input in error messages.
func NormalizePlasticityRuleName(rule string) string {
	trimmed := strings.ToLower(strings.TrimSpace(rule))
	switch trimmed {
	case "", PlasticityNone:
		return PlasticityNone
	case PlasticityHebbian:
		return PlasticityHebbian
	case PlasticityHebbianW:
		return PlasticityHebbianW
	case PlasticityOja, "ojas":
		return PlasticityOja
	case PlasticityOjaW:
		return PlasticityOjaW
	case PlasticityNeuromodulation:
		return PlasticityNeuromodulation
	case PlasticitySelfModulationV1, "self_modulation_v1":
		return PlasticitySelfModulationV1
	case PlasticitySelfModulationV2, "self_modulation_v2":
		return PlasticitySelfModulationV2
	case PlasticitySelfModulationV3, "self_modulation_v3":
		return PlasticitySelfModulationV3
	case PlasticitySelfModulationV4, "self_modulation_v4":
		return PlasticitySelfModulationV4
	case PlasticitySelfModulationV5, "self_modulation_v5":
		return PlasticitySelfModulationV5
	case PlasticitySelfModulationV6, "self_modulation_v6":
		return PlasticitySelfModulationV6
	default:
		return trimmed
	}
}

// hebbianCoefficients are the generalized Hebbian rule's four terms: A
// scales the pre*post product, B the presynaptic term alone, C the
// postsynaptic term alone, D is a constant offset.
type hebbianCoefficients struct {
	A float64
	B float64
	C float64
	D float64
}

// modulationState is the per-synapse outcome of a self-modulation rule:
// a scalar gain H applied on top of (possibly rule-adjusted) Hebbian
// coefficients.
type modulationState struct {
	H      float64
	Coeffs hebbianCoefficients
}

// ApplyPlasticity runs one plasticity pass over genome's enabled synapses,
// nudging each weight according to its target neuron's effective rule
// (falling back to cfg when the neuron carries no override) and the pre-
// and post-synaptic activations recorded in neuronValues. Weights are
// clamped to cfg.SaturationLimit (2*pi when unset).
func ApplyPlasticity(genome *model.Genome, neuronValues map[string]float64, cfg model.PlasticityConfig) error {
	if genome == nil {
		return fmt.Errorf("genome is required")
	}
	genomeRule := NormalizePlasticityRuleName(cfg.Rule)
	if err := validatePlasticityRule(genomeRule, cfg.Rule); err != nil {
		return err
	}
	genomeCoeffs := hebbianCoefficientsFromConfig(cfg)
	limit := cfg.SaturationLimit
	if limit <= 0 {
		limit = 2 * math.Pi
	}

	neuronByID := indexNeuronsByID(genome.Neurons)
	incomingByTarget := indexEnabledSynapsesByTarget(genome.Synapses)

	for i := range genome.Synapses {
		synapse := &genome.Synapses[i]
		if !synapse.Enabled {
			continue
		}

		rule, rate, coeffs, biasParams := resolveSynapseRule(synapse.To, neuronByID, genomeRule, cfg.Rate, genomeCoeffs)
		if rule == PlasticityNone || rate == 0 {
			continue
		}
		if err := validatePlasticityRule(rule, rule); err != nil {
			return err
		}

		pre := neuronValues[synapse.From]
		post := neuronValues[synapse.To]
		delta := plasticityDelta(rule, rate, coeffs, limit, *synapse, pre, post, incomingByTarget[synapse.To], biasParams, neuronValues)
		synapse.Weight = clampWeight(synapse.Weight+delta, limit)
	}
	return nil
}

func indexNeuronsByID(neurons []model.Neuron) map[string]model.Neuron {
	byID := make(map[string]model.Neuron, len(neurons))
	for _, neuron := range neurons {
		byID[neuron.ID] = neuron
	}
	return byID
}

func indexEnabledSynapsesByTarget(synapses []model.Synapse) map[string][]model.Synapse {
	byTarget := make(map[string][]model.Synapse, len(synapses))
	for _, synapse := range synapses {
		if !synapse.Enabled {
			continue
		}
		byTarget[synapse.To] = append(byTarget[synapse.To], synapse)
	}
	return byTarget
}

// resolveSynapseRule picks the effective rule, rate, and coefficients for a
// synapse feeding into targetID: a neuron-level override wins over the
// genome default field by field.
func resolveSynapseRule(
	targetID string,
	neuronByID map[string]model.Neuron,
	genomeRule string,
	genomeRate float64,
	genomeCoeffs hebbianCoefficients,
) (rule string, rate float64, coeffs hebbianCoefficients, biasParams []float64) {
	rule, rate, coeffs = genomeRule, genomeRate, genomeCoeffs
	neuron, ok := neuronByID[targetID]
	if !ok {
		return rule, rate, coeffs, nil
	}
	if neuronRule := NormalizePlasticityRuleName(neuron.PlasticityRule); neuronRule != PlasticityNone {
		rule = neuronRule
	}
	if neuron.PlasticityRate != 0 {
		rate = neuron.PlasticityRate
	}
	coeffs = applyNeuronCoefficientOverrides(coeffs, neuron)
	return rule, rate, coeffs, neuron.PlasticityBiasParams
}

func plasticityDelta(
	rule string,
	rate float64,
	coeffs hebbianCoefficients,
	limit float64,
	synapse model.Synapse,
	pre, post float64,
	incoming []model.Synapse,
	biasParams []float64,
	neuronValues map[string]float64,
) float64 {
	switch rule {
	case PlasticityHebbian:
		return rate * pre * post
	case PlasticityHebbianW:
		h := synapsePlasticityParameter(synapse, 0, rate)
		return h * pre * post
	case PlasticityOja:
		return rate * post * (pre - post*synapse.Weight)
	case PlasticityOjaW:
		h := synapsePlasticityParameter(synapse, 0, rate)
		return h * post * (pre - post*synapse.Weight)
	case PlasticityNeuromodulation:
		modulator := scaleDeadzone(post, 0.33, limit)
		return modulator * generalizedHebbianDelta(rate, coeffs, pre, post)
	case PlasticitySelfModulationV1, PlasticitySelfModulationV2, PlasticitySelfModulationV3,
		PlasticitySelfModulationV4, PlasticitySelfModulationV5, PlasticitySelfModulationV6:
		state := resolveModulationState(rule, coeffs, incoming, biasParams, neuronValues)
		return state.H * generalizedHebbianDelta(rate, state.Coeffs, pre, post)
	default:
		return 0
	}
}

func clampWeight(weight, limit float64) float64 {
	switch {
	case weight > limit:
		return limit
	case weight < -limit:
		return -limit
	default:
		return weight
	}
}

func validatePlasticityRule(rule, original string) error {
	switch rule {
	case PlasticityNone,
		PlasticityHebbian,
		PlasticityHebbianW,
		PlasticityOja,
		PlasticityOjaW,
		PlasticityNeuromodulation,
		PlasticitySelfModulationV1,
		PlasticitySelfModulationV2,
		PlasticitySelfModulationV3,
		PlasticitySelfModulationV4,
		PlasticitySelfModulationV5,
		PlasticitySelfModulationV6:
		return nil
	default:
		return fmt.Errorf("unsupported plasticity rule: %s", original)
	}
}

func synapsePlasticityParameter(synapse model.Synapse, index int, fallback float64) float64 {
	if index >= 0 && index < len(synapse.PlasticityParams) {
		return synapse.PlasticityParams[index]
	}
	return fallback
}

func hebbianCoefficientsFromConfig(cfg model.PlasticityConfig) hebbianCoefficients {
	return normalizeHebbianCoefficients(hebbianCoefficients{
		A: cfg.CoeffA,
		B: cfg.CoeffB,
		C: cfg.CoeffC,
		D: cfg.CoeffD,
	})
}

func applyNeuronCoefficientOverrides(base hebbianCoefficients, neuron model.Neuron) hebbianCoefficients {
	if neuron.PlasticityA != 0 {
		base.A = neuron.PlasticityA
	}
	if neuron.PlasticityB != 0 {
		base.B = neuron.PlasticityB
	}
	if neuron.PlasticityC != 0 {
		base.C = neuron.PlasticityC
	}
	if neuron.PlasticityD != 0 {
		base.D = neuron.PlasticityD
	}
	return normalizeHebbianCoefficients(base)
}

// normalizeHebbianCoefficients falls back to a pure A=1 Hebbian term when
// every coefficient is zero, since an all-zero set would otherwise produce
// a permanently inert rule.
func normalizeHebbianCoefficients(coeffs hebbianCoefficients) hebbianCoefficients {
	if coeffs.A == 0 && coeffs.B == 0 && coeffs.C == 0 && coeffs.D == 0 {
		coeffs.A = 1
	}
	return coeffs
}

func generalizedHebbianDelta(rate float64, coeffs hebbianCoefficients, pre, post float64) float64 {
	return rate * (coeffs.A*pre*post + coeffs.B*pre + coeffs.C*post + coeffs.D)
}

// resolveModulationState computes the self-modulation gain (and, for the
// higher-numbered variants, coefficient overrides) from the dot product of
// each incoming synapse's plasticity parameter at a rule-specific index
// with that synapse's presynaptic value, plus the target neuron's own bias
// term at the same index.
func resolveModulationState(
	rule string,
	coeffs hebbianCoefficients,
	incoming []model.Synapse,
	biasParams []float64,
	neuronValues map[string]float64,
) modulationState {
	state := modulationState{H: 1, Coeffs: coeffs}

	set := func(index int, assign func(float64)) {
		if dot, ok := modulationDotProduct(incoming, biasParams, neuronValues, index); ok {
			assign(math.Tanh(dot))
		}
	}

	switch rule {
	case PlasticitySelfModulationV1, PlasticitySelfModulationV2, PlasticitySelfModulationV3:
		set(0, func(v float64) { state.H = v })
	case PlasticitySelfModulationV4, PlasticitySelfModulationV5:
		set(0, func(v float64) { state.H = v })
		set(1, func(v float64) { state.Coeffs.A = v })
	case PlasticitySelfModulationV6:
		set(0, func(v float64) { state.H = v })
		set(1, func(v float64) { state.Coeffs.A = v })
		set(2, func(v float64) { state.Coeffs.B = v })
		set(3, func(v float64) { state.Coeffs.C = v })
		set(4, func(v float64) { state.Coeffs.D = v })
	}

	state.Coeffs = normalizeHebbianCoefficients(state.Coeffs)
	return state
}

func modulationDotProduct(incoming []model.Synapse, biasParams []float64, neuronValues map[string]float64, index int) (float64, bool) {
	total := 0.0
	used := false
	if index >= 0 && index < len(biasParams) {
		total += biasParams[index]
		used = true
	}
	for _, synapse := range incoming {
		if len(synapse.PlasticityParams) <= index {
			continue
		}
		total += neuronValues[synapse.From] * synapse.PlasticityParams[index]
		used = true
	}
	return total, used
}

// scaleDeadzone returns zero inside [-threshold, threshold] and otherwise
// rescales value onto [-maxMagnitude, maxMagnitude], used to turn a
// neuromodulator neuron's raw output into a gating signal that is inert
// near zero.
func scaleDeadzone(value, threshold, maxMagnitude float64) float64 {
	switch {
	case value > threshold:
		return (scaleLinear(value, maxMagnitude, threshold) + 1) * maxMagnitude / 2
	case value < -threshold:
		return (scaleLinear(value, -threshold, -maxMagnitude) - 1) * maxMagnitude / 2
	default:
		return 0
	}
}

func scaleLinear(value, max, min float64) float64 {
	if max == min {
		return 0
	}
	return (value*2 - (max + min)) / (max - min)
}
