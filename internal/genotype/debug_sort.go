package genotype

import (
	"fmt"
	"sort"
	"strings"

	"bardo/internal/model"
)

// sortUnique returns values deduplicated and sorted, dropping blanks.
func sortUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

func neuronIDsSortedUnique(neurons []model.Neuron) []string {
	ids := make([]string, 0, len(neurons))
	for _, neuron := range neurons {
		ids = append(ids, neuron.ID)
	}
	return sortUnique(ids)
}

func byNeuronID(neurons []model.Neuron) []model.Neuron {
	out := append([]model.Neuron(nil), neurons...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func byConnection(synapses []model.Synapse) []model.Synapse {
	out := append([]model.Synapse(nil), synapses...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

func bySensorThenNeuron(links []model.SensorNeuronLink) []model.SensorNeuronLink {
	out := append([]model.SensorNeuronLink(nil), links...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].SensorID != out[j].SensorID {
			return out[i].SensorID < out[j].SensorID
		}
		return out[i].NeuronID < out[j].NeuronID
	})
	return out
}

func byActuatorThenNeuron(links []model.NeuronActuatorLink) []model.NeuronActuatorLink {
	out := append([]model.NeuronActuatorLink(nil), links...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].ActuatorID != out[j].ActuatorID {
			return out[i].ActuatorID < out[j].ActuatorID
		}
		return out[i].NeuronID < out[j].NeuronID
	})
	return out
}

func formatSortedFloatMap(values map[string]float64) string {
	if len(values) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%g", key, values[key]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func incomingSynapses(synapses []model.Synapse, toNeuronID string) []model.Synapse {
	out := make([]model.Synapse, 0, len(synapses))
	for _, synapse := range synapses {
		if synapse.To == toNeuronID {
			out = append(out, synapse)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func actuatorFaninNeurons(links []model.NeuronActuatorLink, actuatorID string) []string {
	fanin := make([]string, 0, len(links))
	for _, link := range links {
		if link.ActuatorID == actuatorID {
			fanin = append(fanin, link.NeuronID)
		}
	}
	return sortUnique(fanin)
}
