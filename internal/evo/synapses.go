package evo

import (
	"context"
	"errors"
	"math/rand"

	"bardo/internal/model"
)

type AddRandomSynapse struct {
	Rand         *rand.Rand
	MaxAbsWeight float64
}

func (o *AddRandomSynapse) Name() string {
	return "add_random_synapse"
}

func (o *AddRandomSynapse) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0
}

func (o *AddRandomSynapse) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o.MaxAbsWeight <= 0 {
		return model.Genome{}, errors.New("max abs weight must be > 0")
	}

	type pair struct {
		from string
		to   string
	}
	candidates := make([]pair, 0, len(genome.Neurons)*len(genome.Neurons))
	for _, from := range genome.Neurons {
		for _, to := range genome.Neurons {
			if hasDirectedSynapse(genome, from.ID, to.ID) {
				continue
			}
			candidates = append(candidates, pair{from: from.ID, to: to.ID})
		}
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrSynapseExists
	}
	selected := candidates[o.Rand.Intn(len(candidates))]
	id := uniqueSynapseID(genome, o.Rand)
	weight := (o.Rand.Float64()*2 - 1) * o.MaxAbsWeight

	mutated := cloneGenome(genome)
	mutated.Synapses = append(mutated.Synapses, model.Synapse{
		ID:        id,
		From:      selected.from,
		To:        selected.to,
		Weight:    weight,
		Enabled:   true,
		Recurrent: selected.from == selected.to,
	})
	return mutated, nil
}

// AddRandomInlink adds a synapse biased toward input->non-input direction.
type AddRandomInlink struct {
	Rand            *rand.Rand
	MaxAbsWeight    float64
	InputNeuronIDs  []string
	FeedForwardOnly bool
}

func (o *AddRandomInlink) Name() string {
	return "add_inlink"
}

func (o *AddRandomInlink) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) == 0 {
		return false
	}
	inputSet := toIDSet(o.InputNeuronIDs)
	layers := inferFeedforwardLayers(genome, o.InputNeuronIDs, nil)
	fromCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := inputSet[id]
		return ok
	})
	toCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := inputSet[id]
		return !ok
	})
	if o.FeedForwardOnly {
		fromCandidates, toCandidates = filterDirectedFeedforwardCandidates(fromCandidates, toCandidates, layers)
	}
	return len(availableInlinkNeuronPairs(genome, fromCandidates, toCandidates)) > 0 ||
		len(availableSensorToNeuronPairs(genome, toCandidates)) > 0
}

func (o *AddRandomInlink) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o.MaxAbsWeight <= 0 {
		return model.Genome{}, errors.New("max abs weight must be > 0")
	}

	inputSet := toIDSet(o.InputNeuronIDs)
	layers := inferFeedforwardLayers(genome, o.InputNeuronIDs, nil)
	fromCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := inputSet[id]
		return ok
	})
	toCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := inputSet[id]
		return !ok
	})
	if o.FeedForwardOnly {
		fromCandidates, toCandidates = filterDirectedFeedforwardCandidates(fromCandidates, toCandidates, layers)
	}
	neuronPairs := availableInlinkNeuronPairs(genome, fromCandidates, toCandidates)
	sensorPairs := availableSensorToNeuronPairs(genome, toCandidates)
	totalCandidates := len(neuronPairs) + len(sensorPairs)
	if totalCandidates == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := o.Rand.Intn(totalCandidates)
	if selected < len(neuronPairs) {
		pair := neuronPairs[selected]
		weight := (o.Rand.Float64()*2 - 1) * o.MaxAbsWeight
		mutated := cloneGenome(genome)
		mutated.Synapses = append(mutated.Synapses, model.Synapse{
			ID:        uniqueSynapseID(genome, o.Rand),
			From:      pair.from,
			To:        pair.to,
			Weight:    weight,
			Enabled:   true,
			Recurrent: pair.from == pair.to,
		})
		return mutated, nil
	}
	mutated := cloneGenome(genome)
	mutated.SensorNeuronLinks = append(mutated.SensorNeuronLinks, sensorPairs[selected-len(neuronPairs)])
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// AddRandomOutlink adds a synapse biased toward non-output->output direction.
type AddRandomOutlink struct {
	Rand            *rand.Rand
	MaxAbsWeight    float64
	OutputNeuronIDs []string
	FeedForwardOnly bool
}

func (o *AddRandomOutlink) Name() string {
	return "add_outlink"
}

func (o *AddRandomOutlink) Applicable(genome model.Genome, _ string) bool {
	if len(genome.Neurons) <= 1 {
		return false
	}
	outputSet := toIDSet(o.OutputNeuronIDs)
	layers := inferFeedforwardLayers(genome, nil, o.OutputNeuronIDs)
	fromCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := outputSet[id]
		return !ok
	})
	toCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := outputSet[id]
		return ok
	})
	if o.FeedForwardOnly {
		fromCandidates, toCandidates = filterDirectedFeedforwardCandidates(fromCandidates, toCandidates, layers)
	}
	return hasAvailableDirectedPair(genome, fromCandidates, toCandidates)
}

func (o *AddRandomOutlink) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	if o.MaxAbsWeight <= 0 {
		return model.Genome{}, errors.New("max abs weight must be > 0")
	}

	outputSet := toIDSet(o.OutputNeuronIDs)
	layers := inferFeedforwardLayers(genome, nil, o.OutputNeuronIDs)
	fromCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := outputSet[id]
		return !ok
	})
	toCandidates := filterNeuronIDs(genome, func(id string) bool {
		_, ok := outputSet[id]
		return ok
	})
	if o.FeedForwardOnly {
		fromCandidates, toCandidates = filterDirectedFeedforwardCandidates(fromCandidates, toCandidates, layers)
	}
	return addDirectedRandomSynapse(genome, o.Rand, o.MaxAbsWeight, fromCandidates, toCandidates)
}

// RemoveRandomSynapse removes a random synapse.
type RemoveRandomSynapse struct {
	Rand *rand.Rand
}

func (o *RemoveRandomSynapse) Name() string {
	return "remove_random_synapse"
}

func (o *RemoveRandomSynapse) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0
}

func (o *RemoveRandomSynapse) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoSynapses
	}

	idx := o.Rand.Intn(len(genome.Synapses))
	mutated := cloneGenome(genome)
	mutated.Synapses = append(mutated.Synapses[:idx], mutated.Synapses[idx+1:]...)
	return mutated, nil
}

// RemoveRandomInlink removes a synapse biased toward input->non-input direction.
type RemoveRandomInlink struct {
	Rand            *rand.Rand
	InputNeuronIDs  []string
	FeedForwardOnly bool
}

func (o *RemoveRandomInlink) Name() string {
	return "remove_inlink"
}

func (o *RemoveRandomInlink) Applicable(genome model.Genome, _ string) bool {
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

func (o *RemoveRandomInlink) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	inputSet := toIDSet(o.InputNeuronIDs)
	layers := inferFeedforwardLayers(genome, o.InputNeuronIDs, nil)
	return removeDirectedRandomSynapse(genome, o.Rand, func(s model.Synapse) bool {
		_, fromInput := inputSet[s.From]
		_, toInput := inputSet[s.To]
		return fromInput && !toInput && (!o.FeedForwardOnly || isFeedforwardEdge(layers, s.From, s.To))
	})
}

// RemoveRandomOutlink removes a synapse biased toward non-output->output direction.
type RemoveRandomOutlink struct {
	Rand            *rand.Rand
	OutputNeuronIDs []string
	FeedForwardOnly bool
}

func (o *RemoveRandomOutlink) Name() string {
	return "remove_outlink"
}

func (o *RemoveRandomOutlink) Applicable(genome model.Genome, _ string) bool {
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

func (o *RemoveRandomOutlink) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	outputSet := toIDSet(o.OutputNeuronIDs)
	layers := inferFeedforwardLayers(genome, nil, o.OutputNeuronIDs)
	return removeDirectedRandomSynapse(genome, o.Rand, func(s model.Synapse) bool {
		_, fromOutput := outputSet[s.From]
		_, toOutput := outputSet[s.To]
		return !fromOutput && toOutput && (!o.FeedForwardOnly || isFeedforwardEdge(layers, s.From, s.To))
	})
}

// CutlinkFromNeuronToNeuron removes a random neuron-to-neuron synapse.
type CutlinkFromNeuronToNeuron struct {
	Rand *rand.Rand
}

func (o *CutlinkFromNeuronToNeuron) Name() string {
	return "cutlink_FromNeuronToNeuron"
}

func (o *CutlinkFromNeuronToNeuron) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0
}

func (o *CutlinkFromNeuronToNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.Synapses) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	return (&RemoveRandomSynapse{Rand: o.Rand}).Apply(ctx, genome)
}

// CutlinkFromElementToElement removes a random link of any kind (synapse,
// sensor link, or actuator link).
type CutlinkFromElementToElement struct {
	Rand *rand.Rand
}

func (o *CutlinkFromElementToElement) Name() string {
	return "cutlink_FromElementToElement"
}

func (o *CutlinkFromElementToElement) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Synapses) > 0 || len(genome.SensorNeuronLinks) > 0 || len(genome.NeuronActuatorLinks) > 0
}

func (o *CutlinkFromElementToElement) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	type opCandidate struct {
		apply func(context.Context, model.Genome) (model.Genome, error)
	}
	candidates := make([]opCandidate, 0, 3)
	removeSynapse := &RemoveRandomSynapse{Rand: o.Rand}
	if removeSynapse.Applicable(genome, "") {
		candidates = append(candidates, opCandidate{apply: removeSynapse.Apply})
	}
	cutSensor := &CutlinkFromSensorToNeuron{Rand: o.Rand}
	if cutSensor.Applicable(genome, "") {
		candidates = append(candidates, opCandidate{apply: cutSensor.Apply})
	}
	cutActuator := &CutlinkFromNeuronToActuator{Rand: o.Rand}
	if cutActuator.Applicable(genome, "") {
		candidates = append(candidates, opCandidate{apply: cutActuator.Apply})
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := candidates[o.Rand.Intn(len(candidates))]
	return selected.apply(ctx, genome)
}

// LinkFromElementToElement adds a random link of any kind (synapse, sensor,
// or actuator link).
type LinkFromElementToElement struct {
	Rand         *rand.Rand
	MaxAbsWeight float64
}

func (o *LinkFromElementToElement) Name() string {
	return "link_FromElementToElement"
}

func (o *LinkFromElementToElement) Applicable(genome model.Genome, _ string) bool {
	allNeurons := filterNeuronIDs(genome, nil)
	addSynapse := hasAvailableDirectedPair(genome, allNeurons, allNeurons)
	addSensor := (&AddRandomSensorLink{Rand: o.Rand, ScapeName: ""}).Applicable(genome, "")
	addActuator := (&AddRandomActuatorLink{Rand: o.Rand, ScapeName: ""}).Applicable(genome, "")
	return addSynapse || addSensor || addActuator
}

func (o *LinkFromElementToElement) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	type opCandidate struct {
		apply func(context.Context, model.Genome) (model.Genome, error)
	}
	candidates := make([]opCandidate, 0, 3)
	allNeurons := filterNeuronIDs(genome, nil)
	if hasAvailableDirectedPair(genome, allNeurons, allNeurons) {
		candidates = append(candidates, opCandidate{apply: func(_ context.Context, g model.Genome) (model.Genome, error) {
			if o.MaxAbsWeight <= 0 {
				return model.Genome{}, errors.New("max abs weight must be > 0")
			}
			return addDirectedRandomSynapse(g, o.Rand, o.MaxAbsWeight, allNeurons, allNeurons)
		}})
	}
	addSensor := &AddRandomSensorLink{Rand: o.Rand, ScapeName: ""}
	if addSensor.Applicable(genome, "") {
		candidates = append(candidates, opCandidate{apply: addSensor.Apply})
	}
	addActuator := &AddRandomActuatorLink{Rand: o.Rand, ScapeName: ""}
	if addActuator.Applicable(genome, "") {
		candidates = append(candidates, opCandidate{apply: addActuator.Apply})
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := candidates[o.Rand.Intn(len(candidates))]
	return selected.apply(ctx, genome)
}

// LinkFromNeuronToNeuron adds a random directed synapse between two neurons.
// Both endpoints are drawn from the full neuron set.
type LinkFromNeuronToNeuron struct {
	Rand         *rand.Rand
	MaxAbsWeight float64
}

func (o *LinkFromNeuronToNeuron) Name() string {
	return "link_FromNeuronToNeuron"
}

func (o *LinkFromNeuronToNeuron) Applicable(genome model.Genome, _ string) bool {
	allNeurons := filterNeuronIDs(genome, nil)
	return hasAvailableDirectedPair(genome, allNeurons, allNeurons)
}

func (o *LinkFromNeuronToNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxAbsWeight <= 0 {
		return model.Genome{}, errors.New("max abs weight must be > 0")
	}
	allNeurons := filterNeuronIDs(genome, nil)
	return addDirectedRandomSynapse(genome, o.Rand, o.MaxAbsWeight, allNeurons, allNeurons)
}

// LinkFromSensorToNeuron is the link_FromSensorToNeuron named alias for
// AddRandomSensorLink.
type LinkFromSensorToNeuron struct {
	Rand      *rand.Rand
	ScapeName string
}

func (o *LinkFromSensorToNeuron) Name() string {
	return "link_FromSensorToNeuron"
}

func (o *LinkFromSensorToNeuron) Applicable(genome model.Genome, scapeName string) bool {
	return (&AddRandomSensorLink{Rand: o.Rand, ScapeName: scapeName}).Applicable(genome, scapeName)
}

func (o *LinkFromSensorToNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&AddRandomSensorLink{Rand: o.Rand, ScapeName: o.ScapeName}).Apply(ctx, genome)
}

// LinkFromNeuronToActuator is the link_FromNeuronToActuator named alias for
// AddRandomActuatorLink.
type LinkFromNeuronToActuator struct {
	Rand      *rand.Rand
	ScapeName string
}

func (o *LinkFromNeuronToActuator) Name() string {
	return "link_FromNeuronToActuator"
}

func (o *LinkFromNeuronToActuator) Applicable(genome model.Genome, scapeName string) bool {
	return (&AddRandomActuatorLink{Rand: o.Rand, ScapeName: scapeName}).Applicable(genome, scapeName)
}

func (o *LinkFromNeuronToActuator) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	return (&AddRandomActuatorLink{Rand: o.Rand, ScapeName: o.ScapeName}).Apply(ctx, genome)
}
