package genotype

import "bardo/internal/model"

// CloneNeuronsWithIDMap copies neurons, relabeling each neuron's own ID
// through neuronIDMap wherever a remapping exists.
func CloneNeuronsWithIDMap(neurons []model.Neuron, neuronIDMap map[string]string) []model.Neuron {
	out := append([]model.Neuron(nil), neurons...)
	for i := range out {
		out[i].ID = remapOrKeep(neuronIDMap, out[i].ID)
	}
	return out
}

// CloneSynapsesWithIDMap copies synapses, relabeling each synapse's own ID
// through synapseIDMap and its From/To endpoints through neuronIDMap.
// Per-synapse plasticity parameter vectors are deep-copied so the clone
// shares no backing array with the original.
func CloneSynapsesWithIDMap(
	synapses []model.Synapse,
	synapseIDMap map[string]string,
	neuronIDMap map[string]string,
) []model.Synapse {
	out := append([]model.Synapse(nil), synapses...)
	for i := range out {
		out[i].ID = remapOrKeep(synapseIDMap, out[i].ID)
		out[i].From = remapOrKeep(neuronIDMap, out[i].From)
		out[i].To = remapOrKeep(neuronIDMap, out[i].To)
		if len(out[i].PlasticityParams) > 0 {
			out[i].PlasticityParams = append([]float64(nil), out[i].PlasticityParams...)
		}
	}
	return out
}

// CloneSensorLinksWithIDMap copies sensor-neuron links, relabeling each
// endpoint through its respective ID map.
func CloneSensorLinksWithIDMap(
	links []model.SensorNeuronLink,
	sensorIDMap map[string]string,
	neuronIDMap map[string]string,
) []model.SensorNeuronLink {
	out := append([]model.SensorNeuronLink(nil), links...)
	for i := range out {
		out[i].SensorID = remapOrKeep(sensorIDMap, out[i].SensorID)
		out[i].NeuronID = remapOrKeep(neuronIDMap, out[i].NeuronID)
	}
	return out
}

// CloneActuatorLinksWithIDMap copies neuron-actuator links, relabeling each
// endpoint through its respective ID map.
func CloneActuatorLinksWithIDMap(
	links []model.NeuronActuatorLink,
	actuatorIDMap map[string]string,
	neuronIDMap map[string]string,
) []model.NeuronActuatorLink {
	out := append([]model.NeuronActuatorLink(nil), links...)
	for i := range out {
		out[i].ActuatorID = remapOrKeep(actuatorIDMap, out[i].ActuatorID)
		out[i].NeuronID = remapOrKeep(neuronIDMap, out[i].NeuronID)
	}
	return out
}

// remapOrKeep looks up id in idMap, returning the mapped value if present
// and id unchanged otherwise.
func remapOrKeep(idMap map[string]string, id string) string {
	if mapped, ok := idMap[id]; ok {
		return mapped
	}
	return id
}
