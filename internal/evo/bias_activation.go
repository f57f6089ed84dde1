package evo

import (
	"context"
	"errors"
	"math/rand"

	"bardo/internal/model"
)

type PerturbRandomBias struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbRandomBias) Name() string {
	return "perturb_random_bias"
}

func (o *PerturbRandomBias) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *PerturbRandomBias) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	idx := o.Rand.Intn(len(genome.Neurons))
	delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta

	mutated := cloneGenome(genome)
	mutated.Neurons[idx].Bias += delta
	mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
	return mutated, nil
}

// AddBias is the add_bias named alias for PerturbRandomBias.
type AddBias struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *AddBias) Name() string {
	return "add_bias"
}

func (o *AddBias) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *AddBias) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&PerturbRandomBias{Rand: o.Rand, MaxDelta: o.MaxDelta}).Apply(ctx, genome)
}

// RemoveRandomBias clears one random neuron bias.
type RemoveRandomBias struct {
	Rand *rand.Rand
}

func (o *RemoveRandomBias) Name() string {
	return "remove_random_bias"
}

func (o *RemoveRandomBias) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *RemoveRandomBias) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	idx := o.Rand.Intn(len(genome.Neurons))
	mutated := cloneGenome(genome)
	mutated.Neurons[idx].Bias = 0
	mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
	return mutated, nil
}

// RemoveBias is the remove_bias named alias for RemoveRandomBias.
type RemoveBias struct {
	Rand *rand.Rand
}

func (o *RemoveBias) Name() string {
	return "remove_bias"
}

func (o *RemoveBias) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *RemoveBias) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&RemoveRandomBias{Rand: o.Rand}).Apply(ctx, genome)
}

// ChangeRandomActivation mutates one neuron's activation function.
type ChangeRandomActivation struct {
	Rand        *rand.Rand
	Activations []string
}

func (o *ChangeRandomActivation) Name() string {
	return "change_random_activation"
}

func (o *ChangeRandomActivation) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *ChangeRandomActivation) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	activations := o.Activations
	if len(activations) == 0 {
		activations = []string{"identity", "relu", "tanh", "sigmoid"}
	}

	idx := o.Rand.Intn(len(genome.Neurons))
	current := genome.Neurons[idx].Activation
	choices := make([]string, 0, len(activations))
	for _, name := range activations {
		if name != "" && name != current {
			choices = append(choices, name)
		}
	}
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	mutated := cloneGenome(genome)
	mutated.Neurons[idx].Activation = choices[o.Rand.Intn(len(choices))]
	mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
	return mutated, nil
}

// MutateAF is the mutate_af named alias for ChangeRandomActivation.
type MutateAF struct {
	Rand        *rand.Rand
	Activations []string
}

func (o *MutateAF) Name() string {
	return "mutate_af"
}

func (o *MutateAF) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) == 0 {
		return false
	}
	activations := append([]string(nil), o.Activations...)
	if len(activations) == 0 {
		activations = []string{"identity", "relu", "tanh", "sigmoid"}
	}
	options := normalizeNonEmptyStrings(activations)
	if len(options) == 0 {
		return false
	}
	for _, neuron := range genome.Neurons {
		for _, option := range options {
			if option != neuron.Activation {
				return true
			}
		}
	}
	return false
}

func (o *MutateAF) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&ChangeRandomActivation{Rand: o.Rand, Activations: o.Activations}).Apply(ctx, genome)
}

// ChangeRandomAggregator mutates one neuron's aggregation function.
type ChangeRandomAggregator struct {
	Rand        *rand.Rand
	Aggregators []string
}

func (o *ChangeRandomAggregator) Name() string {
	return "change_random_aggregator"
}

func (o *ChangeRandomAggregator) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *ChangeRandomAggregator) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	aggregators := o.Aggregators
	if len(aggregators) == 0 {
		aggregators = []string{"dot_product", "mult_product", "diff_product"}
	}

	idx := o.Rand.Intn(len(genome.Neurons))
	current := genome.Neurons[idx].Aggregator
	choices := make([]string, 0, len(aggregators))
	for _, name := range aggregators {
		if name != "" && name != current {
			choices = append(choices, name)
		}
	}
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	mutated := cloneGenome(genome)
	mutated.Neurons[idx].Aggregator = choices[o.Rand.Intn(len(choices))]
	mutated.Neurons[idx].Generation = currentGenomeGeneration(mutated)
	return mutated, nil
}

// MutateAggrF is the mutate_aggrf named alias for ChangeRandomAggregator.
type MutateAggrF struct {
	Rand        *rand.Rand
	Aggregators []string
}

func (o *MutateAggrF) Name() string {
	return "mutate_aggrf"
}

func (o *MutateAggrF) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) == 0 {
		return false
	}
	aggregators := append([]string(nil), o.Aggregators...)
	if len(aggregators) == 0 {
		aggregators = []string{"dot_product", "mult_product", "diff_product"}
	}
	options := normalizeNonEmptyStrings(aggregators)
	if len(options) == 0 {
		return false
	}
	for _, neuron := range genome.Neurons {
		for _, option := range options {
			if option != neuron.Aggregator {
				return true
			}
		}
	}
	return false
}

func (o *MutateAggrF) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&ChangeRandomAggregator{Rand: o.Rand, Aggregators: o.Aggregators}).Apply(ctx, genome)
}
