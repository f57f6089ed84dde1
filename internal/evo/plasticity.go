package evo

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"bardo/internal/model"
	"bardo/internal/nn"
)

// PerturbPlasticityRate mutates the plasticity learning rate when configured.
type PerturbPlasticityRate struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbPlasticityRate) Name() string {
	return "perturb_plasticity_rate"
}

func (o *PerturbPlasticityRate) Applicable(genome model.Genome, _ string) bool {
	return genome.Plasticity != nil
}

func (o *PerturbPlasticityRate) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}
	if genome.Plasticity == nil {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta
	mutated.Plasticity.Rate += delta
	if mutated.Plasticity.Rate < 0 {
		mutated.Plasticity.Rate = 0
	}
	return mutated, nil
}

// MutatePlasticityParameters perturbs a neuron's plasticity rate or, when a
// self-modulation rule is active, its parameter vector.
type MutatePlasticityParameters struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *MutatePlasticityParameters) Name() string {
	return "mutate_plasticity_parameters"
}

func (o *MutatePlasticityParameters) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *MutatePlasticityParameters) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	maxDelta := o.MaxDelta
	if maxDelta <= 0 {
		maxDelta = 0.15
	}
	idx := o.Rand.Intn(len(genome.Neurons))
	mutated := cloneGenome(genome)
	delta := (o.Rand.Float64()*2 - 1) * maxDelta
	rule := nn.NormalizePlasticityRuleName(neuronPlasticityRule(genome, idx))
	if width := selfModulationParameterWidth(rule); width > 0 {
		if selfModulationRuleUsesCoefficientMutation(rule) && o.Rand.Intn(2) == 0 {
			mutateNeuronPlasticityCoefficients(&mutated, genome, idx, delta, o.Rand)
			mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
			return mutated, nil
		}
		if ok := mutateSelfModulationParameterVector(&mutated, genome, idx, width, delta, o.Rand); ok {
			mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
			return mutated, nil
		}
	}
	if plasticityRuleUsesGeneralizedCoefficients(rule) {
		mutateNeuronPlasticityCoefficients(&mutated, genome, idx, delta, o.Rand)
	} else {
		baseRate := neuronPlasticityRate(genome, idx)
		mutated.Neurons[idx].PlasticityRate = math.Max(0, baseRate+delta)
	}
	mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
	return mutated, nil
}

// ChangePlasticityRule mutates the configured plasticity rule.
type ChangePlasticityRule struct {
	Rand  *rand.Rand
	Rules []string
}

func (o *ChangePlasticityRule) Name() string {
	return "change_plasticity_rule"
}

func (o *ChangePlasticityRule) Applicable(genome model.Genome, _ string) bool {
	return genome.Plasticity != nil
}

func (o *ChangePlasticityRule) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if genome.Plasticity == nil {
		return model.Genome{}, ErrNoMutationChoice
	}
	rules := o.Rules
	if len(rules) == 0 {
		rules = defaultPlasticityRules()
	}

	current := genome.Plasticity.Rule
	choices := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule == "" || rule == current {
			continue
		}
		choices = append(choices, rule)
	}
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	mutated := cloneGenome(genome)
	mutated.Plasticity.Rule = choices[o.Rand.Intn(len(choices))]
	return mutated, nil
}

// MutatePF changes the plasticity rule assigned to a random neuron.
type MutatePF struct {
	Rand  *rand.Rand
	Rules []string
}

func (o *MutatePF) Name() string {
	return "mutate_pf"
}

func (o *MutatePF) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) == 0 {
		return false
	}
	rules := append([]string(nil), o.Rules...)
	if len(rules) == 0 {
		rules = defaultPlasticityRules()
	}
	normalized := normalizePlasticityRuleOptions(rules)
	if len(normalized) == 0 {
		return false
	}
	for i := range genome.Neurons {
		current := neuronPlasticityRule(genome, i)
		for _, option := range normalized {
			if option != current {
				return true
			}
		}
	}
	return false
}

func (o *MutatePF) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	rules := append([]string(nil), o.Rules...)
	if len(rules) == 0 {
		rules = defaultPlasticityRules()
	}
	normalized := make([]string, 0, len(rules))
	for _, rule := range rules {
		name := nn.NormalizePlasticityRuleName(rule)
		if name == "" {
			continue
		}
		normalized = append(normalized, name)
	}
	if len(normalized) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	idx := o.Rand.Intn(len(genome.Neurons))
	current := neuronPlasticityRule(genome, idx)
	choices := filterOutString(normalized, current)
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	mutated := cloneGenome(genome)
	mutated.Neurons[idx].PlasticityRule = choices[o.Rand.Intn(len(choices))]
	if mutated.Neurons[idx].PlasticityRate <= 0 {
		mutated.Neurons[idx].PlasticityRate = neuronPlasticityRate(genome, idx)
	}
	mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
	return mutated, nil
}
