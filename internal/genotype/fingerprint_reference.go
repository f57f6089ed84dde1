package genotype

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"bardo/internal/model"
)

// ReferenceFingerprint is a structural snapshot of a genome, generalized
// away from its concrete element IDs so that topologically equivalent
// genomes with different ID schemes produce the same fingerprint.
type ReferenceFingerprint struct {
	Pattern    []PatternLayer               `json:"pattern"`
	EvoHistory []GeneralizedEvoHistoryEvent `json:"evo_history,omitempty"`
	Sensors    []string                     `json:"sensors"`
	Actuators  []string                     `json:"actuators"`
	Topology   TopologySummary              `json:"topology"`
	Links      NodeSummary                  `json:"links"`
	Encoding   string                       `json:"encoding"`
}

// BuildReferenceFingerprint assembles a ReferenceFingerprint from genome and
// its evolutionary history.
func BuildReferenceFingerprint(genome model.Genome, history []EvoHistoryEvent) ReferenceFingerprint {
	neuronIDs := make([]string, 0, len(genome.Neurons))
	for _, neuron := range genome.Neurons {
		neuronIDs = append(neuronIDs, neuron.ID)
	}
	return ReferenceFingerprint{
		Pattern:    CreateInitPattern(neuronIDs),
		EvoHistory: GeneralizeEvoHistory(history),
		Sensors:    sortedUniqueStrings(genome.SensorIDs),
		Actuators:  sortedUniqueStrings(genome.ActuatorIDs),
		Topology:   summarizeTopology(genome),
		Links:      GetNodeSummary(genome),
		Encoding:   encodingKind(genome),
	}
}

// CreateInitPattern groups neuronIDs by their parsed topology layer index,
// in ascending layer order, mirroring the Pattern field ConstructSeedNN
// produces during initial construction. IDs with no recoverable layer index
// are omitted.
func CreateInitPattern(neuronIDs []string) []PatternLayer {
	byLayer := make(map[float64][]string)
	for _, id := range neuronIDs {
		layer, ok := parseLayerIndex(id)
		if !ok {
			continue
		}
		byLayer[layer] = append(byLayer[layer], id)
	}
	layers := make([]float64, 0, len(byLayer))
	for layer := range byLayer {
		layers = append(layers, layer)
	}
	sort.Float64s(layers)

	pattern := make([]PatternLayer, 0, len(layers))
	for _, layer := range layers {
		pattern = append(pattern, PatternLayer{Layer: layer, NeuronIDs: byLayer[layer]})
	}
	return pattern
}

func encodingKind(genome model.Genome) string {
	if genome.Substrate != nil {
		return "substrate"
	}
	return "neural"
}

// ComputeReferenceFingerprint hashes BuildReferenceFingerprint's output
// through a deterministic text encoding, so identical topologies always
// produce identical short fingerprints.
func ComputeReferenceFingerprint(genome model.Genome, history []EvoHistoryEvent) string {
	fingerprint := BuildReferenceFingerprint(genome, history)
	parts := make([]string, 0, 32)
	parts = append(parts, "enc:"+fingerprint.Encoding)

	for _, layer := range fingerprint.Pattern {
		parts = append(parts, fmt.Sprintf("p:%.6f:%d", layer.Layer, len(layer.NeuronIDs)))
	}
	for _, event := range fingerprint.EvoHistory {
		parts = append(parts, "m:"+strings.TrimSpace(event.Mutation))
		for _, element := range event.Elements {
			if element.Layer != nil {
				parts = append(parts, fmt.Sprintf("e:%s:%.6f", element.Kind, *element.Layer))
				continue
			}
			parts = append(parts, "e:"+element.Kind)
		}
	}
	for _, sensor := range fingerprint.Sensors {
		parts = append(parts, "s:"+sensor)
	}
	for _, actuator := range fingerprint.Actuators {
		parts = append(parts, "a:"+actuator)
	}
	parts = append(parts,
		fmt.Sprintf("n:%d", fingerprint.Topology.TotalNeurons),
		fmt.Sprintf("sy:%d", fingerprint.Topology.TotalSynapses),
		fmt.Sprintf("r:%d", fingerprint.Topology.TotalRecurrentSynapses),
		fmt.Sprintf("nils:%d", fingerprint.Links.TotalNILs),
		fmt.Sprintf("nols:%d", fingerprint.Links.TotalNOLs),
		fmt.Sprintf("nros:%d", fingerprint.Links.TotalNROs),
	)
	parts = append(parts, sortedDistParts("af", fingerprint.Topology.ActivationDistribution)...)
	parts = append(parts, sortedDistParts("ag", fingerprint.Topology.AggregatorDistribution)...)

	digest := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(digest[:8])
}

func sortedUniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
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
