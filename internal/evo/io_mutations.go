package evo

import (
	"context"
	"errors"
	"math/rand"

	"bardo/internal/model"
)

// AddRandomSensor adds one compatible sensor id to genome.SensorIDs.
type AddRandomSensor struct {
	Rand      *rand.Rand
	ScapeName string
}

func (o *AddRandomSensor) Name() string {
	return "add_sensor"
}

func (o *AddRandomSensor) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0 && len(sensorCandidates(genome, o.ScapeName)) > 0
}

func (o *AddRandomSensor) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	candidates := sensorCandidates(genome, o.ScapeName)
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	choice := candidates[o.Rand.Intn(len(candidates))]
	mutated := cloneGenome(genome)
	mutated.SensorIDs = append(mutated.SensorIDs, choice)
	targetNeuron := mutated.Neurons[o.Rand.Intn(len(mutated.Neurons))].ID
	mutated.SensorNeuronLinks = append(mutated.SensorNeuronLinks, model.SensorNeuronLink{
		SensorID: choice,
		NeuronID: targetNeuron,
	})
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// AddRandomSensorLink mirrors add_sensorlink in the simplified genome model.
type AddRandomSensorLink struct {
	Rand      *rand.Rand
	ScapeName string
}

func (o *AddRandomSensorLink) Name() string {
	return "add_sensorlink"
}

func (o *AddRandomSensorLink) Applicable(genome model.Genome, _ string) bool {
	return len(availableSensorNeuronPairs(genome)) > 0
}

func (o *AddRandomSensorLink) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.SensorIDs) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	candidates := availableSensorNeuronPairs(genome)
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	selected := candidates[o.Rand.Intn(len(candidates))]
	mutated.SensorNeuronLinks = append(mutated.SensorNeuronLinks, selected)
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// AddRandomActuator adds one compatible actuator id to genome.ActuatorIDs.
type AddRandomActuator struct {
	Rand      *rand.Rand
	ScapeName string
}

func (o *AddRandomActuator) Name() string {
	return "add_actuator"
}

func (o *AddRandomActuator) Applicable(genome model.Genome, _ string) bool {
	return len(genome.Neurons) > 0 && len(actuatorCandidates(genome, o.ScapeName)) > 0
}

func (o *AddRandomActuator) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	candidates := actuatorCandidates(genome, o.ScapeName)
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	choice := candidates[o.Rand.Intn(len(candidates))]
	mutated := cloneGenome(genome)
	currentGeneration := currentGenomeGeneration(mutated)
	mutated.ActuatorIDs = append(mutated.ActuatorIDs, choice)
	touchActuatorGeneration(&mutated, choice, currentGeneration)
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
	mutated.NeuronActuatorLinks = append(mutated.NeuronActuatorLinks, model.NeuronActuatorLink{
		NeuronID:   helperNeuronID,
		ActuatorID: choice,
	})
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// AddRandomActuatorLink mirrors add_actuatorlink in the simplified genome model.
type AddRandomActuatorLink struct {
	Rand      *rand.Rand
	ScapeName string
}

func (o *AddRandomActuatorLink) Name() string {
	return "add_actuatorlink"
}

func (o *AddRandomActuatorLink) Applicable(genome model.Genome, _ string) bool {
	return len(availableNeuronActuatorPairs(genome)) > 0
}

func (o *AddRandomActuatorLink) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.ActuatorIDs) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if len(genome.Neurons) == 0 {
		return model.Genome{}, ErrNoNeurons
	}
	candidates := availableNeuronActuatorPairs(genome)
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated := cloneGenome(genome)
	selected := candidates[o.Rand.Intn(len(candidates))]
	mutated.NeuronActuatorLinks = append(mutated.NeuronActuatorLinks, selected)
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// RemoveRandomSensor removes one sensor id from genome.SensorIDs.
type RemoveRandomSensor struct {
	Rand *rand.Rand
}

func (o *RemoveRandomSensor) Name() string {
	return "remove_sensor"
}

func (o *RemoveRandomSensor) Applicable(genome model.Genome, _ string) bool {
	return len(genome.SensorIDs) > 0
}

func (o *RemoveRandomSensor) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.SensorIDs) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := genome.SensorIDs[o.Rand.Intn(len(genome.SensorIDs))]
	mutated := cloneGenome(genome)
	filtered := mutated.SensorIDs[:0]
	for _, id := range mutated.SensorIDs {
		if id == selected {
			continue
		}
		filtered = append(filtered, id)
	}
	mutated.SensorIDs = filtered
	filteredLinks := mutated.SensorNeuronLinks[:0]
	for _, link := range mutated.SensorNeuronLinks {
		if link.SensorID == selected {
			continue
		}
		filteredLinks = append(filteredLinks, link)
	}
	mutated.SensorNeuronLinks = filteredLinks
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// CutlinkFromSensorToNeuron removes a random sensor-neuron link.
// In the simplified genome model, sensor links are represented by membership
// in SensorIDs, so this delegates to RemoveRandomSensor.
type CutlinkFromSensorToNeuron struct {
	Rand *rand.Rand
}

func (o *CutlinkFromSensorToNeuron) Name() string {
	return "cutlink_FromSensorToNeuron"
}

func (o *CutlinkFromSensorToNeuron) Applicable(genome model.Genome, _ string) bool {
	if len(genome.SensorNeuronLinks) > 0 {
		return true
	}
	return genome.SensorLinks > 0
}

func (o *CutlinkFromSensorToNeuron) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.SensorNeuronLinks) == 0 && genome.SensorLinks <= 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	mutated := cloneGenome(genome)
	if len(mutated.SensorNeuronLinks) > 0 {
		idx := o.Rand.Intn(len(mutated.SensorNeuronLinks))
		mutated.SensorNeuronLinks = append(mutated.SensorNeuronLinks[:idx], mutated.SensorNeuronLinks[idx+1:]...)
		syncIOLinkCounts(&mutated)
		return mutated, nil
	}
	mutated.SensorLinks--
	return mutated, nil
}

// RemoveRandomActuator removes one actuator id from genome.ActuatorIDs.
type RemoveRandomActuator struct {
	Rand *rand.Rand
}

func (o *RemoveRandomActuator) Name() string {
	return "remove_actuator"
}

func (o *RemoveRandomActuator) Applicable(genome model.Genome, _ string) bool {
	return len(genome.ActuatorIDs) > 0
}

func (o *RemoveRandomActuator) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if len(genome.ActuatorIDs) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := genome.ActuatorIDs[o.Rand.Intn(len(genome.ActuatorIDs))]
	mutated := cloneGenome(genome)
	filtered := mutated.ActuatorIDs[:0]
	for _, id := range mutated.ActuatorIDs {
		if id == selected {
			continue
		}
		filtered = append(filtered, id)
	}
	mutated.ActuatorIDs = filtered
	deleteActuatorGeneration(&mutated, selected)
	deleteActuatorTunable(&mutated, selected)
	filteredLinks := mutated.NeuronActuatorLinks[:0]
	for _, link := range mutated.NeuronActuatorLinks {
		if link.ActuatorID == selected {
			continue
		}
		filteredLinks = append(filteredLinks, link)
	}
	mutated.NeuronActuatorLinks = filteredLinks
	syncIOLinkCounts(&mutated)
	return mutated, nil
}

// CutlinkFromNeuronToActuator removes a random neuron-actuator link.
// In the simplified genome model, actuator links are represented by membership
// in ActuatorIDs, so this delegates to RemoveRandomActuator.
type CutlinkFromNeuronToActuator struct {
	Rand *rand.Rand
}

func (o *CutlinkFromNeuronToActuator) Name() string {
	return "cutlink_FromNeuronToActuator"
}

func (o *CutlinkFromNeuronToActuator) Applicable(genome model.Genome, _ string) bool {
	if len(genome.NeuronActuatorLinks) > 0 {
		return true
	}
	return genome.ActuatorLinks > 0
}

func (o *CutlinkFromNeuronToActuator) Apply(ctx context.Context, genome model.Genome) (model.Genome, error) {
	if len(genome.NeuronActuatorLinks) == 0 && genome.ActuatorLinks <= 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	mutated := cloneGenome(genome)
	if len(mutated.NeuronActuatorLinks) > 0 {
		idx := o.Rand.Intn(len(mutated.NeuronActuatorLinks))
		mutated.NeuronActuatorLinks = append(mutated.NeuronActuatorLinks[:idx], mutated.NeuronActuatorLinks[idx+1:]...)
		syncIOLinkCounts(&mutated)
		return mutated, nil
	}
	mutated.ActuatorLinks--
	return mutated, nil
}

// AddRandomCPP mutates substrate CPP selection from the registered CPP set.
