package genotype

import (
	"fmt"
	"math/rand"
	"strings"

	"bardo/internal/model"
	"bardo/internal/nn"
)

// InputSpec names one upstream source feeding a neuron and how many scalar
// values it contributes.
type InputSpec struct {
	FromID string
	Width  int
}

// PatternLayer groups neuron IDs that share a topology layer index, in the
// order ConstructSeedNN laid them out.
type PatternLayer struct {
	Layer     float64
	NeuronIDs []string
}

// SeedNetwork is the initial topology scaffold produced by ConstructSeedNN:
// enough wiring to connect every sensor to every actuator through a single
// layer of neurons (or, in circuit mode, a relay/circuit pair per actuator).
type SeedNetwork struct {
	Neurons             []model.Neuron
	Synapses            []model.Synapse
	SensorNeuronLinks   []model.SensorNeuronLink
	NeuronActuatorLinks []model.NeuronActuatorLink
	InputNeuronIDs      []string
	OutputNeuronIDs     []string
	Pattern             []PatternLayer
}

// ConstructSeedNN builds the minimal fully-connected scaffold between
// sensors and actuators. When neuralAFs carries a "circuit"-tagged
// activation, each actuator gets a relay neuron feeding a dedicated output
// ("circuit") neuron instead of a single direct output neuron.
func ConstructSeedNN(
	generation int,
	sensors []string,
	actuators []string,
	neuralAFs []string,
	neuralPFs []string,
	neuralAggrFs []string,
	rng *rand.Rand,
) (SeedNetwork, error) {
	rng = ensureRNG(rng)
	uniqSensors := uniqueNonEmpty(sensors)
	uniqActuators := uniqueNonEmpty(actuators)
	if len(uniqSensors) == 0 {
		return SeedNetwork{}, fmt.Errorf("at least one sensor is required")
	}
	if len(uniqActuators) == 0 {
		return SeedNetwork{}, fmt.Errorf("at least one actuator is required")
	}

	inputNeuronIDs, inputNeurons, sensorLinks := buildInputStage(generation, uniqSensors)
	inputSpecs := make([]InputSpec, 0, len(inputNeuronIDs))
	for _, inputID := range inputNeuronIDs {
		inputSpecs = append(inputSpecs, InputSpec{FromID: inputID, Width: 1})
	}

	if circuitMode, circuitActivation := circuitActivationTag(neuralAFs); circuitMode {
		return buildCircuitSeedNetwork(generation, uniqActuators, inputSpecs, inputNeuronIDs, inputNeurons, sensorLinks, circuitActivation, stripCircuitActivations(neuralAFs), neuralPFs, neuralAggrFs, rng)
	}
	return buildDirectSeedNetwork(generation, uniqActuators, inputSpecs, inputNeuronIDs, inputNeurons, sensorLinks, neuralAFs, neuralPFs, neuralAggrFs, rng)
}

func buildInputStage(generation int, sensors []string) ([]string, []model.Neuron, []model.SensorNeuronLink) {
	ids := make([]string, 0, len(sensors))
	neurons := make([]model.Neuron, 0, len(sensors))
	links := make([]model.SensorNeuronLink, 0, len(sensors))
	for i, sensorID := range sensors {
		neuronID := fmt.Sprintf("L0:in:%d", i)
		ids = append(ids, neuronID)
		neurons = append(neurons, model.Neuron{
			ID:         neuronID,
			Generation: generation,
			Activation: "identity",
			Aggregator: "none",
		})
		links = append(links, model.SensorNeuronLink{SensorID: sensorID, NeuronID: neuronID})
	}
	return ids, neurons, links
}

// buildDirectSeedNetwork is the baseline topology: one output neuron per
// actuator, each fed directly by every input neuron.
func buildDirectSeedNetwork(
	generation int,
	actuators []string,
	inputSpecs []InputSpec,
	inputNeuronIDs []string,
	inputNeurons []model.Neuron,
	sensorLinks []model.SensorNeuronLink,
	neuralAFs, neuralPFs, neuralAggrFs []string,
	rng *rand.Rand,
) (SeedNetwork, error) {
	neurons := append([]model.Neuron(nil), inputNeurons...)
	var synapses []model.Synapse
	outputNeuronIDs := make([]string, 0, len(actuators))
	actuatorLinks := make([]model.NeuronActuatorLink, 0, len(actuators))

	for i, actuatorID := range actuators {
		neuronID := fmt.Sprintf("L1:out:%d", i)
		outputNeuronIDs = append(outputNeuronIDs, neuronID)
		neuron, inbound, _, err := ConstructNeuron(generation, neuronID, inputSpecs, nil, neuralAFs, neuralPFs, neuralAggrFs, rng)
		if err != nil {
			return SeedNetwork{}, err
		}
		neurons = append(neurons, neuron)
		synapses = append(synapses, inbound...)
		actuatorLinks = append(actuatorLinks, model.NeuronActuatorLink{NeuronID: neuronID, ActuatorID: actuatorID})
	}

	return SeedNetwork{
		Neurons:             neurons,
		Synapses:            synapses,
		SensorNeuronLinks:   sensorLinks,
		NeuronActuatorLinks: actuatorLinks,
		InputNeuronIDs:      inputNeuronIDs,
		OutputNeuronIDs:     outputNeuronIDs,
		Pattern: []PatternLayer{
			{Layer: 0, NeuronIDs: append([]string(nil), inputNeuronIDs...)},
			{Layer: 1, NeuronIDs: append([]string(nil), outputNeuronIDs...)},
		},
	}, nil
}

// buildCircuitSeedNetwork inserts a relay neuron ahead of each actuator's
// output ("circuit") neuron, giving the evolutionary process a second
// neuron per actuator to grow structure around.
func buildCircuitSeedNetwork(
	generation int,
	actuators []string,
	inputSpecs []InputSpec,
	inputNeuronIDs []string,
	inputNeurons []model.Neuron,
	sensorLinks []model.SensorNeuronLink,
	circuitActivation string,
	relayAFs, neuralPFs, neuralAggrFs []string,
	rng *rand.Rand,
) (SeedNetwork, error) {
	neurons := append([]model.Neuron(nil), inputNeurons...)
	var synapses []model.Synapse
	relayNeuronIDs := make([]string, 0, len(actuators))
	outputNeuronIDs := make([]string, 0, len(actuators))
	actuatorLinks := make([]model.NeuronActuatorLink, 0, len(actuators))

	for i, actuatorID := range actuators {
		relayID := fmt.Sprintf("L0.5:relay:%d", i)
		circuitID := fmt.Sprintf("L0.99:circuit:%d", i)
		relayNeuronIDs = append(relayNeuronIDs, relayID)
		outputNeuronIDs = append(outputNeuronIDs, circuitID)

		relay, relayInbound, _, err := ConstructNeuron(generation, relayID, inputSpecs, []string{circuitID}, relayAFs, neuralPFs, neuralAggrFs, rng)
		if err != nil {
			return SeedNetwork{}, err
		}
		circuit, circuitInbound, _, err := ConstructNeuron(generation, circuitID, []InputSpec{{FromID: relayID, Width: 1}}, nil, []string{circuitActivation}, neuralPFs, neuralAggrFs, rng)
		if err != nil {
			return SeedNetwork{}, err
		}
		neurons = append(neurons, relay, circuit)
		synapses = append(synapses, relayInbound...)
		synapses = append(synapses, circuitInbound...)
		actuatorLinks = append(actuatorLinks, model.NeuronActuatorLink{NeuronID: circuitID, ActuatorID: actuatorID})
	}

	return SeedNetwork{
		Neurons:             neurons,
		Synapses:            synapses,
		SensorNeuronLinks:   sensorLinks,
		NeuronActuatorLinks: actuatorLinks,
		InputNeuronIDs:      inputNeuronIDs,
		OutputNeuronIDs:     outputNeuronIDs,
		Pattern: []PatternLayer{
			{Layer: 0, NeuronIDs: append([]string(nil), inputNeuronIDs...)},
			{Layer: 0.5, NeuronIDs: relayNeuronIDs},
			{Layer: 0.99, NeuronIDs: append([]string(nil), outputNeuronIDs...)},
		},
	}, nil
}

// ConstructNeuron builds one neuron plus its inbound synapses from
// inputSpecs, picking an activation/plasticity-rule/aggregator at random
// from the supplied option lists (falling back to sane defaults when a list
// is empty). outputIDs supplies the downstream neuron IDs used to compute
// which of them are recurrent relative to this neuron's layer.
func ConstructNeuron(
	generation int,
	neuronID string,
	inputSpecs []InputSpec,
	outputIDs []string,
	neuralAFs []string,
	neuralPFs []string,
	neuralAggrFs []string,
	rng *rand.Rand,
) (model.Neuron, []model.Synapse, []string, error) {
	if strings.TrimSpace(neuronID) == "" {
		return model.Neuron{}, nil, nil, fmt.Errorf("neuron id is required")
	}
	rng = ensureRNG(rng)

	pfRule, pfParams := GenerateNeuronPF(rng, neuralPFs)
	neuron := model.Neuron{
		ID:         neuronID,
		Generation: generation,
		Activation: GenerateNeuronAF(rng, neuralAFs),
		Aggregator: GenerateNeuronAggrF(rng, neuralAggrFs),
	}
	applyPFNeuralParams(&neuron, pfRule, pfParams)

	synapses := inboundSynapsesForNeuron(neuronID, pfRule, inputSpecs, rng)
	return neuron, synapses, CalculateROIDs(neuronID, outputIDs), nil
}

func inboundSynapsesForNeuron(neuronID, pfRule string, inputSpecs []InputSpec, rng *rand.Rand) []model.Synapse {
	inputIDPs := CreateInputIDPs(pfRule, inputSpecs, rng)
	synapses := make([]model.Synapse, 0, len(inputIDPs))
	for _, inputIDP := range inputIDPs {
		for i, weight := range inputIDP.Weights {
			synapses = append(synapses, model.Synapse{
				ID:               fmt.Sprintf("%s:in:%s:%d", neuronID, sanitizeID(inputIDP.FromID), i),
				From:             inputIDP.FromID,
				To:               neuronID,
				Weight:           weight.Weight,
				Enabled:          true,
				PlasticityParams: append([]float64(nil), weight.PlasticityParams...),
			})
		}
	}
	return synapses
}

// GenerateNeuronAF picks one activation function at random, defaulting to
// tanh when activationFunctions is empty or the pick is blank.
func GenerateNeuronAF(rng *rand.Rand, activationFunctions []string) string {
	rng = ensureRNG(rng)
	if len(activationFunctions) == 0 {
		return "tanh"
	}
	choice, err := RandomElement(rng, activationFunctions)
	if err != nil {
		return "tanh"
	}
	if choice = strings.TrimSpace(choice); choice == "" {
		return "tanh"
	}
	return choice
}

// GenerateNeuronPF picks one plasticity rule name at random and returns its
// normalized form alongside a freshly-seeded neural parameter vector.
func GenerateNeuronPF(rng *rand.Rand, pfNames []string) (string, []float64) {
	rng = ensureRNG(rng)
	if len(pfNames) == 0 {
		return nn.PlasticityNone, nil
	}
	choice, err := RandomElement(rng, pfNames)
	if err != nil {
		return nn.PlasticityNone, nil
	}
	rule := nn.NormalizePlasticityRuleName(choice)
	if rule == "" {
		rule = nn.PlasticityNone
	}
	return rule, defaultPFNeuralParameters(rule, rng)
}

// GenerateNeuronAggrF picks one aggregation function at random, defaulting
// to "none" when aggregationFunctions is empty or the pick is blank.
func GenerateNeuronAggrF(rng *rand.Rand, aggregationFunctions []string) string {
	rng = ensureRNG(rng)
	if len(aggregationFunctions) == 0 {
		return "none"
	}
	choice, err := RandomElement(rng, aggregationFunctions)
	if err != nil {
		return "none"
	}
	if choice = strings.TrimSpace(choice); choice == "" {
		return "none"
	}
	return choice
}

// CalculateROIDs reports which of outputIDs are recurrent relative to
// selfID: any output whose parsed layer index is at or below selfID's own.
func CalculateROIDs(selfID string, outputIDs []string) []string {
	selfLayer, ok := parseLayerIndex(selfID)
	if !ok {
		return nil
	}
	roIDs := make([]string, 0, len(outputIDs))
	for _, outputID := range outputIDs {
		if layer, ok := parseLayerIndex(outputID); ok && layer <= selfLayer {
			roIDs = append(roIDs, outputID)
		}
	}
	return roIDs
}

// LinkNeuron scaffolds inbound synapses from fromIDs and outbound synapses
// to toIDs around neuronID, flagging any outbound synapse that loops back
// to an equal-or-earlier layer as recurrent.
func LinkNeuron(fromIDs []string, neuronID string, toIDs []string, rng *rand.Rand) ([]model.Synapse, error) {
	if strings.TrimSpace(neuronID) == "" {
		return nil, fmt.Errorf("neuron id is required")
	}
	rng = ensureRNG(rng)
	uniqFrom := uniqueNonEmpty(fromIDs)
	uniqTo := uniqueNonEmpty(toIDs)
	synapses := make([]model.Synapse, 0, len(uniqFrom)+len(uniqTo))

	for i, fromID := range uniqFrom {
		synapses = append(synapses, model.Synapse{
			ID:      fmt.Sprintf("%s:link:in:%s:%d", neuronID, sanitizeID(fromID), i),
			From:    fromID,
			To:      neuronID,
			Weight:  randomCentered(rng),
			Enabled: true,
		})
	}

	recurrentTo := make(map[string]struct{})
	for _, roID := range CalculateROIDs(neuronID, uniqTo) {
		recurrentTo[roID] = struct{}{}
	}
	for i, toID := range uniqTo {
		_, recurrent := recurrentTo[toID]
		synapses = append(synapses, model.Synapse{
			ID:        fmt.Sprintf("%s:link:out:%s:%d", neuronID, sanitizeID(toID), i),
			From:      neuronID,
			To:        toID,
			Weight:    randomCentered(rng),
			Enabled:   true,
			Recurrent: recurrent,
		})
	}
	return synapses, nil
}
