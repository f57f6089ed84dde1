package evo

import (
	"context"
	"errors"
	"math/rand"

	"bardo/internal/model"
	"bardo/internal/substrate"
)

type AddRandomCPP struct {
	Rand *rand.Rand
}

func (o *AddRandomCPP) Name() string {
	return "add_cpp"
}

func (o *AddRandomCPP) Applicable(genome model.Genome, _ string) bool {
	return len(availableCPPChoices(genome)) > 0
}

func (o *AddRandomCPP) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if genome.Substrate == nil {
		return model.Genome{}, ErrNoMutationChoice
	}
	choices := availableCPPChoices(genome)
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := choices[o.Rand.Intn(len(choices))]

	mutated := cloneGenome(genome)
	mutated.Substrate.CPPName = selected
	if mutated.Substrate.CEPName == "" {
		mutated.Substrate.CEPName = substrate.DefaultCEPName
	}
	if mutated.Substrate.Parameters == nil {
		mutated.Substrate.Parameters = map[string]float64{}
	}
	// In the simplified model, approximate CPP structural growth by adding one
	// extra sensor->neuron endpoint link when such a connection is available.
	if len(mutated.Neurons) > 0 && len(mutated.SensorIDs) > 0 {
		toCandidates := filterNeuronIDs(mutated, nil)
		sensorPairs := availableSensorToNeuronPairs(mutated, toCandidates)
		if len(sensorPairs) > 0 {
			mutated.SensorNeuronLinks = append(mutated.SensorNeuronLinks, sensorPairs[o.Rand.Intn(len(sensorPairs))])
			syncIOLinkCounts(&mutated)
		}
	}
	return mutated, nil
}

// AddRandomCEP mutates substrate CEP selection from the registered CEP set.
type AddRandomCEP struct {
	Rand *rand.Rand
}

func (o *AddRandomCEP) Name() string {
	return "add_cep"
}

func (o *AddRandomCEP) Applicable(genome model.Genome, _ string) bool {
	return len(availableCEPChoices(genome)) > 0
}

func (o *AddRandomCEP) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if genome.Substrate == nil {
		return model.Genome{}, ErrNoMutationChoice
	}
	choices := availableCEPChoices(genome)
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := choices[o.Rand.Intn(len(choices))]

	mutated := cloneGenome(genome)
	currentGeneration := currentGenomeGeneration(mutated)
	mutated.Substrate.CEPName = selected
	if mutated.Substrate.CPPName == "" {
		mutated.Substrate.CPPName = substrate.DefaultCPPName
	}
	if mutated.Substrate.Parameters == nil {
		mutated.Substrate.Parameters = map[string]float64{}
	}
	if len(mutated.Neurons) > 0 {
		sourceNeuron := mutated.Neurons[o.Rand.Intn(len(mutated.Neurons))].ID
		helperNeuronID := uniqueNeuronID(mutated, o.Rand)
		mutated.Neurons = append(mutated.Neurons, model.Neuron{
			ID:         helperNeuronID,
			Generation: currentGeneration,
			Activation: "tanh",
		})
		mutated.Synapses = append(mutated.Synapses, model.Synapse{
			ID:        uniqueSynapseID(mutated, o.Rand),
			From:      sourceNeuron,
			To:        helperNeuronID,
			Weight:    (o.Rand.Float64() * 2) - 1,
			Enabled:   true,
			Recurrent: sourceNeuron == helperNeuronID,
		})
	}
	return mutated, nil
}

// RemoveRandomCPP clears substrate CPP selection.
type RemoveRandomCPP struct{}

func (o *RemoveRandomCPP) Name() string {
	return "remove_cpp"
}

func (o *RemoveRandomCPP) Applicable(genome model.Genome, _ string) bool {
	return genome.Substrate != nil && genome.Substrate.CPPName != ""
}

func (o *RemoveRandomCPP) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if genome.Substrate == nil || genome.Substrate.CPPName == "" {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	mutated.Substrate.CPPName = ""
	return mutated, nil
}

// RemoveRandomCEP clears substrate CEP selection.
type RemoveRandomCEP struct{}

func (o *RemoveRandomCEP) Name() string {
	return "remove_cep"
}

func (o *RemoveRandomCEP) Applicable(genome model.Genome, _ string) bool {
	return genome.Substrate != nil && genome.Substrate.CEPName != ""
}

func (o *RemoveRandomCEP) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if genome.Substrate == nil || genome.Substrate.CEPName == "" {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	mutated.Substrate.CEPName = ""
	return mutated, nil
}

// AddCircuitNode mutates substrate dimensions by adding one node to a random layer.
type AddCircuitNode struct {
	Rand *rand.Rand
}

func (o *AddCircuitNode) Name() string {
	return "add_circuit_node"
}

func (o *AddCircuitNode) Applicable(genome model.Genome, _ string) bool {
	return genome.Substrate != nil && len(genome.Substrate.Dimensions) > 0
}

func (o *AddCircuitNode) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if genome.Substrate == nil || len(genome.Substrate.Dimensions) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	idx := o.Rand.Intn(len(mutated.Substrate.Dimensions))
	if mutated.Substrate.Dimensions[idx] < 1 {
		mutated.Substrate.Dimensions[idx] = 1
	}
	mutated.Substrate.Dimensions[idx]++
	return mutated, nil
}

// DeleteCircuitNode mutates substrate dimensions by removing one node from a
// random layer where width > 1.
type DeleteCircuitNode struct {
	Rand *rand.Rand
}

func (o *DeleteCircuitNode) Name() string {
	return "delete_circuit_node"
}

func (o *DeleteCircuitNode) Applicable(genome model.Genome, _ string) bool {
	if genome.Substrate == nil || len(genome.Substrate.Dimensions) == 0 {
		return false
	}
	for _, width := range genome.Substrate.Dimensions {
		if width > 1 {
			return true
		}
	}
	return false
}

func (o *DeleteCircuitNode) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if genome.Substrate == nil || len(genome.Substrate.Dimensions) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	candidates := make([]int, 0, len(genome.Substrate.Dimensions))
	for i, width := range genome.Substrate.Dimensions {
		if width > 1 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	idx := candidates[o.Rand.Intn(len(candidates))]
	mutated.Substrate.Dimensions[idx]--
	return mutated, nil
}

// AddCircuitLayer mutates substrate dimensions by inserting a new layer.
type AddCircuitLayer struct {
	Rand *rand.Rand
}

func (o *AddCircuitLayer) Name() string {
	return "add_circuit_layer"
}

func (o *AddCircuitLayer) Applicable(genome model.Genome, _ string) bool {
	return genome.Substrate != nil && len(genome.Substrate.Dimensions) > 0
}

func (o *AddCircuitLayer) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if genome.Substrate == nil {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	dims := append([]int(nil), mutated.Substrate.Dimensions...)
	if len(dims) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if len(dims) == 1 {
		mutated.Substrate.Dimensions = []int{dims[0], 1}
		return mutated, nil
	}
	insertAt := len(dims) - 1
	updated := make([]int, 0, len(dims)+1)
	updated = append(updated, dims[:insertAt]...)
	updated = append(updated, 1)
	updated = append(updated, dims[insertAt:]...)
	mutated.Substrate.Dimensions = updated
	return mutated, nil
}

// ChangeActivationAt mutates one neuron's activation function label.
