package evo

import (
	"context"
	"errors"
	"math/rand"

	"bardo/internal/model"
)

// AddRandomNeuron inserts a neuron by splitting a random synapse.
type AddRandomNeuron struct {
	Rand        *rand.Rand
	Activations []string
}

func (o *AddRandomNeuron) Name() string {
	return "add_random_neuron"
}

func (o *AddRandomNeuron) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0
}

func (o *AddRandomNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return addRandomNeuronWithSynapseCandidates(ctx, genome, o.Rand, o.Activations, nil)
}

// AddNeuron is the add_neuron named alias for AddRandomNeuron.
type AddNeuron struct {
	Rand        *rand.Rand
	Activations []string
}

func (o *AddNeuron) Name() string {
	return "add_neuron"
}

func (o *AddNeuron) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0
}

func (o *AddNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&AddRandomNeuron{Rand: o.Rand, Activations: o.Activations}).Apply(ctx, genome)
}

// AddRandomOutsplice inserts a neuron by splitting a synapse biased toward
// non-output->output direction.
type AddRandomOutsplice struct {
	Rand            *rand.Rand
	Activations     []string
	OutputNeuronIDs []string
	FeedForwardOnly bool
}

func (o *AddRandomOutsplice) Name() string {
	return "outsplice"
}

func (o *AddRandomOutsplice) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Synapses) == 0 {
		return false
	}
	outputSet := toIDSet(o.OutputNeuronIDs)
	layers := inferFeedforwardLayers(genome, nil, o.OutputNeuronIDs)
	for _, syn := range genome.Synapses {
		_, fromOutput := outputSet[syn.From]
		_, toOutput := outputSet[syn.To]
		if !fromOutput && toOutput && (!o.FeedForwardOnly || isFeedforwardEdge(layers, syn.From, syn.To)) {
			return true
		}
	}
	return false
}

func (o *AddRandomOutsplice) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	outputSet := toIDSet(o.OutputNeuronIDs)
	layers := inferFeedforwardLayers(genome, nil, o.OutputNeuronIDs)
	return addRandomNeuronWithSynapseCandidates(ctx, genome, o.Rand, o.Activations, func(s model.Synapse) bool {
		_, fromOutput := outputSet[s.From]
		_, toOutput := outputSet[s.To]
		return !fromOutput && toOutput && (!o.FeedForwardOnly || isFeedforwardEdge(layers, s.From, s.To))
	})
}

// AddRandomInsplice inserts a neuron by splitting a synapse biased toward
// input->non-input direction.
type AddRandomInsplice struct {
	Rand            *rand.Rand
	Activations     []string
	InputNeuronIDs  []string
	FeedForwardOnly bool
}

func (o *AddRandomInsplice) Name() string {
	return "insplice"
}

func (o *AddRandomInsplice) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Synapses) == 0 {
		return false
	}
	inputSet := toIDSet(o.InputNeuronIDs)
	layers := inferFeedforwardLayers(genome, o.InputNeuronIDs, nil)
	for _, syn := range genome.Synapses {
		_, fromInput := inputSet[syn.From]
		_, toInput := inputSet[syn.To]
		if fromInput && !toInput && (!o.FeedForwardOnly || isFeedforwardEdge(layers, syn.From, syn.To)) {
			return true
		}
	}
	return false
}

func (o *AddRandomInsplice) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	inputSet := toIDSet(o.InputNeuronIDs)
	layers := inferFeedforwardLayers(genome, o.InputNeuronIDs, nil)
	return addRandomNeuronWithSynapseCandidates(ctx, genome, o.Rand, o.Activations, func(s model.Synapse) bool {
		_, fromInput := inputSet[s.From]
		_, toInput := inputSet[s.To]
		return fromInput && !toInput && (!o.FeedForwardOnly || isFeedforwardEdge(layers, s.From, s.To))
	})
}

func addRandomNeuronWithSynapseCandidates(
	ctx context.Context,
	genome model.Genome,
	rng *rand.Rand,
	activations []string,
	filter func(model.Synapse) bool,
) (model.Genome, error) {
	if rng == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	if len(activations) == 0 {
		activations = []string{"identity", "relu", "tanh", "sigmoid"}
	}

	candidates := make([]int, 0, len(genome.Synapses))
	for i, syn := range genome.Synapses {
		if filter == nil || filter(syn) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	activation := activations[rng.Intn(len(activations))]
	op := AddNeuronAtSynapse{
		SynapseIndex: candidates[rng.Intn(len(candidates))],
		NeuronID:     uniqueNeuronID(genome, rng),
		Activation:   activation,
		Bias:         0,
	}
	return op.Apply(ctx, genome)
}

// RemoveRandomNeuron removes a random neuron, optionally skipping protected IDs.
type RemoveRandomNeuron struct {
	Rand      *rand.Rand
	Protected map[string]struct{}
}

func (o *RemoveRandomNeuron) Name() string {
	return "remove_random_neuron"
}

func (o *RemoveRandomNeuron) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) == 0 {
		return false
	}
	for _, neuron := range genome.Neurons {
		if _, protected := o.Protected[neuron.ID]; !protected {
			return true
		}
	}
	return false
}

func (o *RemoveRandomNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}

	candidates := make([]string, 0, len(genome.Neurons))
	for _, n := range genome.Neurons {
		if _, protected := o.Protected[n.ID]; protected {
			continue
		}
		candidates = append(candidates, n.ID)
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	target := candidates[o.Rand.Intn(len(candidates))]
	return RemoveNeuron{ID: target}.Apply(ctx, genome)
}

// RemoveNeuronMutation is the remove_neuron named alias for RemoveRandomNeuron.
type RemoveNeuronMutation struct {
	Rand      *rand.Rand
	Protected map[string]struct{}
}

func (o *RemoveNeuronMutation) Name() string {
	return "remove_neuron"
}

func (o *RemoveNeuronMutation) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) == 0 {
		return false
	}
	for _, neuron := range genome.Neurons {
		if _, protected := o.Protected[neuron.ID]; !protected {
			return true
		}
	}
	return false
}

func (o *RemoveNeuronMutation) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&RemoveRandomNeuron{Rand: o.Rand, Protected: o.Protected}).Apply(ctx, genome)
}
