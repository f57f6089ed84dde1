package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"bardo/internal/model"
)

type PerturbWeightAt struct {
	Index int
	Delta float64
}

func (o PerturbWeightAt) Name() string {
	return "perturb_weight_at"
}

func (o PerturbWeightAt) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if o.Index < 0 || o.Index >= len(genome.Synapses) {
		return model.Genome{}, fmt.Errorf("synapse index out of range: %d", o.Index)
	}

	mutated := cloneGenome(genome)
	mutated.Synapses[o.Index].Weight += o.Delta
	return mutated, nil
}

// PerturbRandomWeight mutates a random synapse using uniform delta in [-MaxDelta, MaxDelta].
type PerturbRandomWeight struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbRandomWeight) Name() string {
	return "perturb_random_weight"
}

func (o *PerturbRandomWeight) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0
}

func (o *PerturbRandomWeight) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	idx := o.Rand.Intn(len(genome.Synapses))
	delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta

	mutated := cloneGenome(genome)
	mutated.Synapses[idx].Weight += delta
	return mutated, nil
}

// PerturbWeightsProportional mutates a random subset of synapses using the
// reference-style mutate probability 1/sqrt(total_weights). At least one
// synapse is always perturbed when synapses are present.
type PerturbWeightsProportional struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *PerturbWeightsProportional) Name() string {
	return "perturb_weights_proportional"
}

func (o *PerturbWeightsProportional) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0
}

func (o *PerturbWeightsProportional) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoSynapses
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	mutated := cloneGenome(genome)
	mp := 1 / math.Sqrt(float64(len(mutated.Synapses)))
	mutatedCount := 0
	for i := range mutated.Synapses {
		if o.Rand.Float64() >= mp {
			continue
		}
		delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta
		mutated.Synapses[i].Weight += delta
		mutatedCount++
	}
	if mutatedCount == 0 {
		idx := o.Rand.Intn(len(mutated.Synapses))
		delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta
		mutated.Synapses[idx].Weight += delta
	}
	return mutated, nil
}

// MutateWeights perturbs a spread of neuron and actuator weights, scaling
// perturbation spread by the configured annealing factor.
type MutateWeights struct {
	Rand     *rand.Rand
	MaxDelta float64
}

func (o *MutateWeights) Name() string {
	return "mutate_weights"
}

func (o *MutateWeights) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0 || len(genome.ActuatorIDs) > 0
}

func (o *MutateWeights) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 && len(genome.ActuatorIDs) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}

	mutated := cloneGenome(genome)
	ensureStrategyConfig(&mutated)
	selectedNeuronSpreads := selectedNeuronSpreadsForMutateWeights(
		mutated,
		o.Rand,
		o.MaxDelta,
		mutated.Strategy.AnnealingFactor,
	)
	if len(selectedNeuronSpreads) == 0 {
		return mutated, nil
	}

	changed := 0
	candidateFallback := make([]int, 0, len(mutated.Synapses))
	currentGeneration := currentGenomeGeneration(mutated)
	for _, target := range selectedNeuronSpreads {
		if target.sourceKind == tuningElementActuator {
			if perturbActuatorTunable(&mutated, target.sourceID, target.spread, o.Rand) {
				changed++
				touchActuatorGeneration(&mutated, target.sourceID, currentGeneration)
			}
			continue
		}
		neuronID := target.id
		incoming := incomingSynapseIndexes(mutated, neuronID)
		if len(incoming) == 0 {
			continue
		}
		candidateFallback = append(candidateFallback, incoming...)
		spread := target.spread
		if spread <= 0 {
			continue
		}
		mp := 1 / math.Sqrt(float64(len(incoming)))
		mutatedLocal := 0
		for _, idx := range incoming {
			if o.Rand.Float64() >= mp {
				continue
			}
			delta := (o.Rand.Float64()*2 - 1) * spread
			mutated.Synapses[idx].Weight += delta
			mutatedLocal++
			changed++
		}
		if mutatedLocal == 0 {
			idx := incoming[o.Rand.Intn(len(incoming))]
			delta := (o.Rand.Float64()*2 - 1) * spread
			mutated.Synapses[idx].Weight += delta
			changed++
		}
		touchNeuronGeneration(mutated.Neurons, neuronID, currentGeneration)
	}

	if changed == 0 {
		if len(mutated.Synapses) == 0 {
			return model.Genome{}, ErrNoMutationChoice
		}
		idx := 0
		if len(candidateFallback) > 0 {
			idx = candidateFallback[o.Rand.Intn(len(candidateFallback))]
		} else {
			idx = o.Rand.Intn(len(mutated.Synapses))
		}
		delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta
		mutated.Synapses[idx].Weight += delta
	}
	return mutated, nil
}
