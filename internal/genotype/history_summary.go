package genotype

import (
	"strings"

	"bardo/internal/model"
)

// NodeSummary reports a genome's link topology at a glance: how many
// synapses/links feed in, feed out, and loop back recurrently, plus how
// activation functions are distributed across its neurons.
type NodeSummary struct {
	TotalNILs              int
	TotalNOLs              int
	TotalNROs              int
	ActivationDistribution map[string]int
}

// GeneralizedElementRef describes an evo-history element by kind and,
// where derivable, the topology layer it lived at — stripped of its
// original ID so the event can be compared across genomes with different
// ID schemes.
type GeneralizedElementRef struct {
	Layer *float64 `json:"layer,omitempty"`
	Kind  string   `json:"kind"`
}

// GeneralizedEvoHistoryEvent is an EvoHistoryEvent with its element IDs
// replaced by GeneralizedElementRef descriptors.
type GeneralizedEvoHistoryEvent struct {
	Mutation string                  `json:"mutation"`
	Elements []GeneralizedElementRef `json:"elements,omitempty"`
}

// GetNodeSummary counts a genome's inbound links (NIL), outbound links
// (NOL), and recurrent outbound links (NRO) across both its neuron-to-neuron
// synapses and its sensor/actuator link records.
func GetNodeSummary(genome model.Genome) NodeSummary {
	neuronIDs := indexNeuronIDs(genome.Neurons)
	activationDistribution := make(map[string]int, len(genome.Neurons))
	for _, neuron := range genome.Neurons {
		activationDistribution[neuron.Activation]++
	}

	nils, nols, nros := countSynapseLinks(genome.Synapses, neuronIDs)
	nils += len(genome.SensorNeuronLinks)
	nols += len(genome.NeuronActuatorLinks)

	return NodeSummary{
		TotalNILs:              nils,
		TotalNOLs:              nols,
		TotalNROs:              nros,
		ActivationDistribution: activationDistribution,
	}
}

func indexNeuronIDs(neurons []model.Neuron) map[string]struct{} {
	ids := make(map[string]struct{}, len(neurons))
	for _, neuron := range neurons {
		ids[neuron.ID] = struct{}{}
	}
	return ids
}

func countSynapseLinks(synapses []model.Synapse, neuronIDs map[string]struct{}) (nils, nols, nros int) {
	for _, synapse := range synapses {
		if _, ok := neuronIDs[synapse.To]; ok {
			nils++
		}
		if _, ok := neuronIDs[synapse.From]; ok {
			nols++
			if synapse.Recurrent {
				nros++
			}
		}
	}
	return nils, nols, nros
}

// GeneralizeEvoHistory strips concrete element IDs out of history, keeping
// only each element's inferred kind and topology layer.
func GeneralizeEvoHistory(history []EvoHistoryEvent) []GeneralizedEvoHistoryEvent {
	if len(history) == 0 {
		return nil
	}
	out := make([]GeneralizedEvoHistoryEvent, len(history))
	for i, event := range history {
		out[i] = GeneralizedEvoHistoryEvent{Mutation: event.Mutation}
		if len(event.IDs) == 0 {
			continue
		}
		out[i].Elements = make([]GeneralizedElementRef, len(event.IDs))
		for j, id := range event.IDs {
			out[i].Elements[j] = generalizeElementID(id)
		}
	}
	return out
}

func generalizeElementID(id string) GeneralizedElementRef {
	layer, hasLayer := parseLayerIndex(id)
	ref := GeneralizedElementRef{Kind: inferElementKind(id, hasLayer)}
	if hasLayer {
		ref.Layer = &layer
	}
	return ref
}

// elementKindMarkers maps a substring that might appear in an element ID to
// the kind it signals, checked in order.
var elementKindMarkers = []struct {
	substring string
	kind      string
}{
	{"synapse", "synapse"},
	{"sensor", "sensor"},
	{"actuator", "actuator"},
	{"cortex", "cortex"},
	{"substrate", "substrate"},
	{"strategy", "strategy"},
	{"plasticity", "plasticity"},
	{"neuron", "neuron"},
}

func inferElementKind(id string, hasLayer bool) string {
	lower := strings.ToLower(strings.TrimSpace(id))
	for _, marker := range elementKindMarkers {
		if strings.Contains(lower, marker.substring) {
			return marker.kind
		}
	}
	if hasLayer {
		return "neuron"
	}
	return "element"
}
