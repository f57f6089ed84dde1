package evo

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"bardo/internal/model"
	"bardo/internal/tuning"
)

type neuronSpreadTarget struct {
	id         string
	spread     float64
	sourceKind string
	sourceID   string
}

type tuningElementCandidate struct {
	kind       string
	id         string
	generation int
}

const (
	tuningElementNeuron   = "neuron"
	tuningElementActuator = "actuator"
)

func selectedNeuronSpreadsForMutateWeights(
	genome model.Genome,
	rng *rand.Rand,
	baseSpread float64,
	annealing float64,
) []neuronSpreadTarget {
	if (len(genome.Neurons) == 0 && len(genome.ActuatorIDs) == 0) || rng == nil {
		return nil
	}
	if baseSpread <= 0 {
		return nil
	}
	if annealing <= 0 {
		annealing = 1.0
	}

	mode := tuning.NormalizeCandidateSelectionName(genome.Strategy.TuningSelection)
	currentGeneration := currentGenomeGeneration(genome)
	candidates := tuningElementsForMutateWeights(genome, currentGeneration)
	selected := filterTuningElementsByMode(candidates, mode, currentGeneration, rng)
	targets := spreadTargetsFromElements(genome, selected, currentGeneration, baseSpread, annealing)
	if len(targets) == 0 {
		if shouldFallbackToFirstTuningTarget(mode) {
			targets = fallbackSpreadTargetsFromCandidates(genome, candidates, baseSpread)
		}
	}
	if len(targets) == 0 {
		return nil
	}
	if isRandomTuningSelectionMode(mode) {
		return randomNeuronSpreadSubset(targets, rng)
	}
	return targets
}

func shouldFallbackToFirstTuningTarget(mode string) bool {
	switch mode {
	case tuning.CandidateSelectDynamicA,
		tuning.CandidateSelectDynamic,
		tuning.CandidateSelectActiveRnd,
		tuning.CandidateSelectRecentRnd,
		tuning.CandidateSelectCurrent,
		tuning.CandidateSelectCurrentRd,
		tuning.CandidateSelectLastGen,
		tuning.CandidateSelectLastGenRd,
		tuning.CandidateSelectBestSoFar,
		tuning.CandidateSelectOriginal:
		return true
	default:
		return false
	}
}

func fallbackSpreadTargetsFromCandidates(
	genome model.Genome,
	candidates []tuningElementCandidate,
	spread float64,
) []neuronSpreadTarget {
	for _, candidate := range candidates {
		target := neuronSpreadTarget{
			spread:     spread,
			sourceKind: candidate.kind,
			sourceID:   candidate.id,
		}
		switch candidate.kind {
		case tuningElementNeuron:
			if candidate.id == "" || !hasNeuron(genome, candidate.id) {
				continue
			}
			target.id = candidate.id
		case tuningElementActuator:
			if candidate.id == "" || !hasActuator(genome, candidate.id) {
				continue
			}
			target.id = candidate.id
		default:
			continue
		}
		return []neuronSpreadTarget{target}
	}
	if len(genome.Neurons) > 0 {
		return []neuronSpreadTarget{{
			id:         genome.Neurons[0].ID,
			spread:     spread,
			sourceKind: tuningElementNeuron,
			sourceID:   genome.Neurons[0].ID,
		}}
	}
	if len(genome.ActuatorIDs) == 0 {
		return nil
	}
	fallback := genome.ActuatorIDs[0]
	return []neuronSpreadTarget{{
		id:         fallback,
		spread:     spread,
		sourceKind: tuningElementActuator,
		sourceID:   fallback,
	}}
}

func isRandomTuningSelectionMode(mode string) bool {
	switch mode {
	case tuning.CandidateSelectDynamic,
		tuning.CandidateSelectAllRandom,
		tuning.CandidateSelectActiveRnd,
		tuning.CandidateSelectRecentRnd,
		tuning.CandidateSelectCurrentRd,
		tuning.CandidateSelectLastGenRd:
		return true
	default:
		return false
	}
}

func nonRandomTuningSelectionMode(mode string) string {
	switch mode {
	case tuning.CandidateSelectDynamic:
		return tuning.CandidateSelectDynamicA
	case tuning.CandidateSelectAllRandom:
		return tuning.CandidateSelectAll
	case tuning.CandidateSelectActiveRnd:
		return tuning.CandidateSelectActive
	case tuning.CandidateSelectRecentRnd:
		return tuning.CandidateSelectRecent
	case tuning.CandidateSelectCurrentRd:
		return tuning.CandidateSelectCurrent
	case tuning.CandidateSelectLastGenRd:
		return tuning.CandidateSelectLastGen
	default:
		return mode
	}
}

func filterTuningElementsByMode(
	candidates []tuningElementCandidate,
	mode string,
	currentGeneration int,
	rng *rand.Rand,
) []tuningElementCandidate {
	if len(candidates) == 0 {
		return nil
	}
	baseMode := nonRandomTuningSelectionMode(mode)
	switch baseMode {
	case tuning.CandidateSelectDynamicA:
		u := rng.Float64()
		if u <= 0 {
			u = math.SmallestNonzeroFloat64
		}
		return filterTuningElementsByAge(candidates, currentGeneration, math.Sqrt(1/u))
	case tuning.CandidateSelectActive, tuning.CandidateSelectRecent:
		return filterTuningElementsByAge(candidates, currentGeneration, 3)
	case tuning.CandidateSelectCurrent, tuning.CandidateSelectLastGen:
		return filterTuningElementsByAge(candidates, currentGeneration, 0)
	case tuning.CandidateSelectAll, tuning.CandidateSelectBestSoFar, tuning.CandidateSelectOriginal:
		return append([]tuningElementCandidate(nil), candidates...)
	default:
		return append([]tuningElementCandidate(nil), candidates...)
	}
}

func filterTuningElementsByAge(candidates []tuningElementCandidate, currentGeneration int, maxAge float64) []tuningElementCandidate {
	filtered := make([]tuningElementCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		age := currentGeneration - candidate.generation
		if age < 0 {
			age = 0
		}
		if float64(age) <= maxAge {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

func tuningElementsForMutateWeights(genome model.Genome, currentGeneration int) []tuningElementCandidate {
	out := make([]tuningElementCandidate, 0, len(genome.Neurons)+len(genome.ActuatorIDs))
	for _, neuron := range genome.Neurons {
		out = append(out, tuningElementCandidate{
			kind:       tuningElementNeuron,
			id:         neuron.ID,
			generation: effectiveNeuronGeneration(neuron, currentGeneration),
		})
	}
	for _, actuatorID := range uniqueStrings(genome.ActuatorIDs) {
		if actuatorID == "" {
			continue
		}
		out = append(out, tuningElementCandidate{
			kind:       tuningElementActuator,
			id:         actuatorID,
			generation: effectiveActuatorGeneration(genome, actuatorID, currentGeneration),
		})
	}
	return out
}

func spreadTargetsFromElements(
	genome model.Genome,
	selected []tuningElementCandidate,
	currentGeneration int,
	baseSpread float64,
	annealing float64,
) []neuronSpreadTarget {
	targets := make([]neuronSpreadTarget, 0, len(selected))
	for _, candidate := range selected {
		age := currentGeneration - candidate.generation
		if age < 0 {
			age = 0
		}
		spread := baseSpread * math.Pow(annealing, float64(age))
		if spread <= 0 {
			spread = baseSpread
		}
		target := neuronSpreadTarget{
			spread:     spread,
			sourceKind: candidate.kind,
			sourceID:   candidate.id,
		}
		switch candidate.kind {
		case tuningElementNeuron:
			if candidate.id == "" || !hasNeuron(genome, candidate.id) {
				continue
			}
			target.id = candidate.id
		case tuningElementActuator:
			if candidate.id == "" || !hasActuator(genome, candidate.id) {
				continue
			}
			target.id = candidate.id
		default:
			continue
		}
		targets = append(targets, target)
	}
	return targets
}

func currentGenomeGeneration(genome model.Genome) int {
	if gen, ok := inferGenerationFromTaggedID(genome.ID); ok {
		return gen
	}
	maxGen := 0
	for _, neuron := range genome.Neurons {
		if neuron.Generation > maxGen {
			maxGen = neuron.Generation
		}
	}
	for _, actuatorGen := range genome.ActuatorGenerations {
		if actuatorGen > maxGen {
			maxGen = actuatorGen
		}
	}
	for _, actuatorID := range genome.ActuatorIDs {
		if gen, ok := inferGenerationFromTaggedID(actuatorID); ok && gen > maxGen {
			maxGen = gen
		}
	}
	return maxGen
}

func effectiveNeuronGeneration(neuron model.Neuron, fallback int) int {
	switch {
	case neuron.Generation > 0:
		return neuron.Generation
	case neuron.ID != "":
		if gen, ok := inferGenerationFromTaggedID(neuron.ID); ok {
			return gen
		}
	}
	return fallback
}

func effectiveActuatorGeneration(genome model.Genome, actuatorID string, fallback int) int {
	if genome.ActuatorGenerations != nil {
		if generation, ok := genome.ActuatorGenerations[actuatorID]; ok && generation > 0 {
			return generation
		}
	}
	if generation, ok := inferGenerationFromTaggedID(actuatorID); ok {
		return generation
	}
	return fallback
}

func inferGenerationFromTaggedID(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	parts := strings.Split(id, "-")
	for _, part := range parts {
		if len(part) > 1 && part[0] == 'g' {
			gen, err := strconv.Atoi(part[1:])
			if err == nil {
				return gen, true
			}
		}
	}
	return 0, false
}

func randomNeuronSpreadSubset(targets []neuronSpreadTarget, rng *rand.Rand) []neuronSpreadTarget {
	if len(targets) == 0 {
		return nil
	}
	if len(targets) == 1 {
		return append([]neuronSpreadTarget(nil), targets...)
	}
	subset := make([]neuronSpreadTarget, 0, len(targets))
	mp := 1 / math.Sqrt(float64(len(targets)))
	for _, target := range targets {
		if rng.Float64() < mp {
			subset = append(subset, target)
		}
	}
	if len(subset) > 0 {
		return subset
	}
	return []neuronSpreadTarget{targets[rng.Intn(len(targets))]}
}

func perturbActuatorTunable(genome *model.Genome, actuatorID string, spread float64, rng *rand.Rand) bool {
	if genome == nil || actuatorID == "" || spread <= 0 || rng == nil {
		return false
	}
	if genome.ActuatorTunables == nil {
		genome.ActuatorTunables = map[string]float64{}
	}
	delta := (rng.Float64()*2 - 1) * spread
	genome.ActuatorTunables[actuatorID] += delta
	return true
}

func touchNeuronGeneration(neurons []model.Neuron, neuronID string, generation int) {
	if generation < 0 {
		generation = 0
	}
	for i := range neurons {
		if neurons[i].ID != neuronID {
			continue
		}
		neurons[i].Generation = generation
		return
	}
}

func touchActuatorGeneration(genome *model.Genome, actuatorID string, generation int) {
	if genome == nil || actuatorID == "" {
		return
	}
	if generation < 0 {
		generation = 0
	}
	if genome.ActuatorGenerations == nil {
		genome.ActuatorGenerations = map[string]int{}
	}
	genome.ActuatorGenerations[actuatorID] = generation
}

func deleteActuatorGeneration(genome *model.Genome, actuatorID string) {
	if genome == nil || genome.ActuatorGenerations == nil || actuatorID == "" {
		return
	}
	delete(genome.ActuatorGenerations, actuatorID)
	if len(genome.ActuatorGenerations) == 0 {
		genome.ActuatorGenerations = nil
	}
}

func deleteActuatorTunable(genome *model.Genome, actuatorID string) {
	if genome == nil || genome.ActuatorTunables == nil || actuatorID == "" {
		return
	}
	delete(genome.ActuatorTunables, actuatorID)
	if len(genome.ActuatorTunables) == 0 {
		genome.ActuatorTunables = nil
	}
}

func incomingSynapseIndexes(genome model.Genome, neuronID string) []int {
	indexes := make([]int, 0, len(genome.Synapses))
	for i, syn := range genome.Synapses {
		if syn.To == neuronID {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

