package evo

import (
	"bardo/internal/model"
	"bardo/internal/substrate"
)

func availableSensorNeuronPairs(genome model.Genome) []model.SensorNeuronLink {
	if len(genome.SensorIDs) == 0 || len(genome.Neurons) == 0 {
		return nil
	}
	sensors := uniqueStrings(genome.SensorIDs)
	pairs := make([]model.SensorNeuronLink, 0, len(sensors)*len(genome.Neurons))
	for _, sensorID := range sensors {
		for _, neuron := range genome.Neurons {
			if hasSensorNeuronLink(genome, sensorID, neuron.ID) {
				continue
			}
			pairs = append(pairs, model.SensorNeuronLink{
				SensorID: sensorID,
				NeuronID: neuron.ID,
			})
		}
	}
	return pairs
}

func availableNeuronActuatorPairs(genome model.Genome) []model.NeuronActuatorLink {
	if len(genome.ActuatorIDs) == 0 || len(genome.Neurons) == 0 {
		return nil
	}
	actuators := uniqueStrings(genome.ActuatorIDs)
	pairs := make([]model.NeuronActuatorLink, 0, len(actuators)*len(genome.Neurons))
	for _, neuron := range genome.Neurons {
		for _, actuatorID := range actuators {
			if hasNeuronActuatorLink(genome, neuron.ID, actuatorID) {
				continue
			}
			pairs = append(pairs, model.NeuronActuatorLink{
				NeuronID:   neuron.ID,
				ActuatorID: actuatorID,
			})
		}
	}
	return pairs
}

func hasSensorNeuronLink(genome model.Genome, sensorID, neuronID string) bool {
	for _, link := range genome.SensorNeuronLinks {
		if link.SensorID == sensorID && link.NeuronID == neuronID {
			return true
		}
	}
	return false
}

func hasNeuronActuatorLink(genome model.Genome, neuronID, actuatorID string) bool {
	for _, link := range genome.NeuronActuatorLinks {
		if link.NeuronID == neuronID && link.ActuatorID == actuatorID {
			return true
		}
	}
	return false
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func syncIOLinkCounts(genome *model.Genome) {
	genome.SensorLinks = len(genome.SensorNeuronLinks)
	genome.ActuatorLinks = len(genome.NeuronActuatorLinks)
}

func availableCPPChoices(genome model.Genome) []string {
	if genome.Substrate == nil {
		return nil
	}
	return filterOutString(substrate.ListCPPs(), genome.Substrate.CPPName)
}

func availableCEPChoices(genome model.Genome) []string {
	if genome.Substrate == nil {
		return nil
	}
	return filterOutString(substrate.ListCEPs(), genome.Substrate.CEPName)
}

func ensureSubstrateConfig(genome *model.Genome) {
	if genome.Substrate != nil {
		if genome.Substrate.CPPName == "" {
			genome.Substrate.CPPName = substrate.DefaultCPPName
		}
		if genome.Substrate.CEPName == "" {
			genome.Substrate.CEPName = substrate.DefaultCEPName
		}
		if genome.Substrate.Parameters == nil {
			genome.Substrate.Parameters = map[string]float64{}
		}
		return
	}
	genome.Substrate = &model.SubstrateConfig{
		CPPName:    substrate.DefaultCPPName,
		CEPName:    substrate.DefaultCEPName,
		Dimensions: []int{1, 1},
		Parameters: map[string]float64{},
	}
}
