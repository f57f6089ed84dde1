package genotype

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"bardo/internal/model"
)

// TopologySummary is a coarse shape descriptor for a genome's wiring: counts
// of each element kind plus how often each activation/aggregator appears.
type TopologySummary struct {
	TotalNeurons           int            `json:"total_neurons"`
	TotalSynapses          int            `json:"total_synapses"`
	TotalRecurrentSynapses int            `json:"total_recurrent_synapses"`
	TotalSensors           int            `json:"total_sensors"`
	TotalActuators         int            `json:"total_actuators"`
	ActivationDistribution map[string]int `json:"activation_distribution"`
	AggregatorDistribution map[string]int `json:"aggregator_distribution"`
}

// GenomeSignature pairs a short content-addressed fingerprint with the
// topology summary it was derived from.
type GenomeSignature struct {
	Fingerprint string          `json:"fingerprint"`
	Summary     TopologySummary `json:"summary"`
}

// ComputeGenomeSignature summarizes genome's topology and hashes that
// summary into a stable short fingerprint, useful for cheaply spotting
// near-duplicate or drastically different genomes without diffing IDs.
func ComputeGenomeSignature(genome model.Genome) GenomeSignature {
	summary := summarizeTopology(genome)
	digest := hashTopologySummary(summary)
	digest = mixEncodingKind(digest, encodingKind(genome))
	return GenomeSignature{Fingerprint: hex.EncodeToString(digest[:8]), Summary: summary}
}

func summarizeTopology(genome model.Genome) TopologySummary {
	actDist := make(map[string]int)
	aggrDist := make(map[string]int)
	recurrent := 0

	for _, n := range genome.Neurons {
		actDist[n.Activation]++
		aggr := n.Aggregator
		if aggr == "" {
			aggr = "dot_product"
		}
		aggrDist[aggr]++
	}
	for _, s := range genome.Synapses {
		if s.Recurrent {
			recurrent++
		}
	}

	return TopologySummary{
		TotalNeurons:           len(genome.Neurons),
		TotalSynapses:          len(genome.Synapses),
		TotalRecurrentSynapses: recurrent,
		TotalSensors:           len(genome.SensorIDs),
		TotalActuators:         len(genome.ActuatorIDs),
		ActivationDistribution: actDist,
		AggregatorDistribution: aggrDist,
	}
}

// hashTopologySummary builds a deterministic text encoding of summary
// (distribution keys sorted for stability) and returns its SHA-1 digest.
func hashTopologySummary(summary TopologySummary) [sha1.Size]byte {
	parts := []string{
		fmt.Sprintf("n=%d", summary.TotalNeurons),
		fmt.Sprintf("s=%d", summary.TotalSynapses),
		fmt.Sprintf("r=%d", summary.TotalRecurrentSynapses),
		fmt.Sprintf("si=%d", summary.TotalSensors),
		fmt.Sprintf("ao=%d", summary.TotalActuators),
	}
	parts = append(parts, sortedDistParts("af", summary.ActivationDistribution)...)
	parts = append(parts, sortedDistParts("aggr", summary.AggregatorDistribution)...)
	return sha1.Sum([]byte(strings.Join(parts, "|")))
}

// mixEncodingKind folds a genome's encoding kind ("neural" vs "substrate")
// into an already-computed digest, so two genomes with identical element
// counts but different encodings still diverge in the hash stage rather
// than colliding on fingerprint.
func mixEncodingKind(digest [sha1.Size]byte, kind string) [sha1.Size]byte {
	return sha1.Sum(append(digest[:], []byte(kind)...))
}

func sortedDistParts(prefix string, dist map[string]int) []string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s=%d", prefix, k, dist[k]))
	}
	return parts
}
