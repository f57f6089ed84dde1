package tuning

import (
	"context"
	"math"

	"bardo/internal/model"
)

// neuronPerturbTarget is one weight or actuator tunable a perturbation step
// may touch, with the spread (max magnitude) of the random nudge it allows.
type neuronPerturbTarget struct {
	neuronID   string
	spread     float64
	sourceKind string
	sourceID   string
	generation int
}

// tuningElementCandidate is a neuron or actuator before its spread and
// eligibility have been resolved for a specific perturbation round.
type tuningElementCandidate struct {
	kind       string
	id         string
	generation int
}

const (
	tuningElementNeuron   = "neuron"
	tuningElementActuator = "actuator"
)

// perturbCandidate clones base and applies up to e.Steps random nudges to
// synapse weights or actuator tunables, each step picking uniformly among
// the round's eligible targets.
func (e *Exoself) perturbCandidate(ctx context.Context, base model.Genome, perturbationRange, annealingFactor float64) (model.Genome, error) {
	candidate := cloneGenome(base)
	targets := e.selectedNeuronPerturbTargets(candidate, perturbationRange, annealingFactor)
	if len(targets) == 0 {
		return candidate, nil
	}
	currentGeneration := currentGenomeGeneration(candidate)
	for s := 0; s < e.Steps; s++ {
		if err := ctx.Err(); err != nil {
			return model.Genome{}, err
		}
		e.applyPerturbStep(&candidate, targets[e.randIntn(len(targets))], currentGeneration)
	}
	return candidate, nil
}

func (e *Exoself) applyPerturbStep(candidate *model.Genome, target neuronPerturbTarget, currentGeneration int) {
	if target.sourceKind == tuningElementActuator {
		spread := e.StepSize * target.spread
		if spread <= 0 {
			return
		}
		perturbActuatorTunable(candidate, target.sourceID, spread, e.randFloat64)
		touchActuatorGeneration(candidate, target.sourceID, currentGeneration)
		return
	}
	if len(candidate.Synapses) == 0 || target.neuronID == "" {
		return
	}
	incoming := incomingSynapseIndexes(*candidate, target.neuronID)
	if len(incoming) == 0 {
		return
	}
	idx := incoming[e.randIntn(len(incoming))]
	spread := e.StepSize * target.spread
	delta := (e.randFloat64()*2 - 1) * spread
	candidate.Synapses[idx].Weight += delta
	touchNeuronGeneration(candidate.Neurons, target.neuronID, currentGeneration)
}

// selectedNeuronPerturbTargets resolves the eligible perturbation targets
// for this round under e.CandidateSelection: neurons/actuators are filtered
// by age relative to the genome's current generation, a fallback target is
// produced if that filter empties the set, and "_random" modes subsample
// the result.
func (e *Exoself) selectedNeuronPerturbTargets(
	genome model.Genome,
	perturbationRange float64,
	annealingFactor float64,
) []neuronPerturbTarget {
	if len(genome.Neurons) == 0 && len(genome.ActuatorIDs) == 0 {
		return nil
	}
	if perturbationRange <= 0 {
		perturbationRange = 1.0
	}
	if annealingFactor <= 0 {
		annealingFactor = 1.0
	}

	mode := NormalizeCandidateSelectionName(e.CandidateSelection)
	currentGeneration := currentGenomeGeneration(genome)
	candidates := tuningElementsForGenome(genome, currentGeneration)
	selected := filterTuningElementsByMode(candidates, nonRandomModeFor(mode), currentGeneration, e.randFloat64)
	targets := perturbTargetsFromElements(genome, selected, currentGeneration, perturbationRange, annealingFactor)
	if len(targets) == 0 && shouldFallbackToFirstTuningTarget(mode) {
		targets = fallbackNeuronTargetsFromCandidates(genome, candidates, currentGeneration, perturbationRange*math.Pi)
	}
	if len(targets) == 0 {
		return nil
	}
	if isRandomSelection(mode) {
		return e.randomNeuronTargetSubset(targets)
	}
	return targets
}

func shouldFallbackToFirstTuningTarget(mode string) bool {
	switch mode {
	case CandidateSelectDynamicA,
		CandidateSelectDynamic,
		CandidateSelectActiveRnd,
		CandidateSelectRecentRnd,
		CandidateSelectCurrent,
		CandidateSelectCurrentRd,
		CandidateSelectLastGen,
		CandidateSelectLastGenRd,
		CandidateSelectBestSoFar,
		CandidateSelectOriginal:
		return true
	default:
		return false
	}
}

func fallbackNeuronTargetsFromCandidates(
	genome model.Genome,
	candidates []tuningElementCandidate,
	currentGeneration int,
	spread float64,
) []neuronPerturbTarget {
	for _, candidate := range candidates {
		target := neuronPerturbTarget{
			spread:     spread,
			sourceKind: candidate.kind,
			sourceID:   candidate.id,
			generation: candidate.generation,
		}
		switch candidate.kind {
		case tuningElementNeuron:
			if candidate.id == "" || !hasNeuron(genome, candidate.id) {
				continue
			}
			target.neuronID = candidate.id
		case tuningElementActuator:
			if candidate.id == "" || !hasActuator(genome, candidate.id) {
				continue
			}
		default:
			continue
		}
		return []neuronPerturbTarget{target}
	}
	if len(genome.Neurons) > 0 {
		fallback := genome.Neurons[0]
		return []neuronPerturbTarget{{
			neuronID:   fallback.ID,
			spread:     spread,
			sourceKind: tuningElementNeuron,
			sourceID:   fallback.ID,
			generation: effectiveNeuronGeneration(fallback, currentGeneration),
		}}
	}
	if len(genome.ActuatorIDs) == 0 {
		return nil
	}
	fallback := genome.ActuatorIDs[0]
	return []neuronPerturbTarget{{
		neuronID:   "",
		spread:     spread,
		sourceKind: tuningElementActuator,
		sourceID:   fallback,
		generation: effectiveActuatorGeneration(genome, fallback, currentGeneration),
	}}
}

func tuningElementsForGenome(genome model.Genome, currentGeneration int) []tuningElementCandidate {
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

func filterTuningElementsByMode(
	candidates []tuningElementCandidate,
	mode string,
	currentGeneration int,
	randFloat64 func() float64,
) []tuningElementCandidate {
	if len(candidates) == 0 {
		return nil
	}
	switch mode {
	case CandidateSelectDynamicA:
		return filterTuningElementsByAge(candidates, currentGeneration, dynamicAgeLimit(randFloat64()))
	case CandidateSelectActive, CandidateSelectRecent:
		return filterTuningElementsByAge(candidates, currentGeneration, 3)
	case CandidateSelectCurrent, CandidateSelectLastGen:
		return filterTuningElementsByAge(candidates, currentGeneration, 0)
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

func perturbTargetsFromElements(
	genome model.Genome,
	selected []tuningElementCandidate,
	currentGeneration int,
	perturbationRange float64,
	annealingFactor float64,
) []neuronPerturbTarget {
	out := make([]neuronPerturbTarget, 0, len(selected))
	for _, candidate := range selected {
		age := currentGeneration - candidate.generation
		if age < 0 {
			age = 0
		}
		spread := perturbationRange * math.Pi * math.Pow(annealingFactor, float64(age))
		if spread <= 0 {
			spread = perturbationRange * math.Pi
		}
		target := neuronPerturbTarget{
			spread:     spread,
			sourceKind: candidate.kind,
			sourceID:   candidate.id,
			generation: candidate.generation,
		}
		switch candidate.kind {
		case tuningElementNeuron:
			if candidate.id == "" || !hasNeuron(genome, candidate.id) {
				continue
			}
			target.neuronID = candidate.id
		case tuningElementActuator:
			if candidate.id == "" || !hasActuator(genome, candidate.id) {
				continue
			}
		default:
			continue
		}
		out = append(out, target)
	}
	return out
}

func currentGenomeGeneration(genome model.Genome) int {
	if gen, ok := inferGenomeGeneration(genome.ID); ok {
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
		if gen, ok := inferGenomeGeneration(actuatorID); ok && gen > maxGen {
			maxGen = gen
		}
	}
	return maxGen
}

func effectiveNeuronGeneration(neuron model.Neuron, fallback int) int {
	if neuron.Generation > 0 {
		return neuron.Generation
	}
	if gen, ok := inferGenomeGeneration(neuron.ID); ok {
		return gen
	}
	return fallback
}

func effectiveActuatorGeneration(genome model.Genome, actuatorID string, fallback int) int {
	if genome.ActuatorGenerations != nil {
		if generation, ok := genome.ActuatorGenerations[actuatorID]; ok && generation > 0 {
			return generation
		}
	}
	if gen, ok := inferGenomeGeneration(actuatorID); ok {
		return gen
	}
	return fallback
}

func (e *Exoself) randomNeuronTargetSubset(targets []neuronPerturbTarget) []neuronPerturbTarget {
	if len(targets) <= 1 {
		return append([]neuronPerturbTarget(nil), targets...)
	}
	mutationP := 1 / math.Sqrt(float64(len(targets)))
	chosen := make([]neuronPerturbTarget, 0, len(targets))
	for i := range targets {
		if e.randFloat64() < mutationP {
			chosen = append(chosen, targets[i])
		}
	}
	if len(chosen) > 0 {
		return chosen
	}
	return []neuronPerturbTarget{targets[e.randIntn(len(targets))]}
}

func hasNeuron(genome model.Genome, neuronID string) bool {
	for _, neuron := range genome.Neurons {
		if neuron.ID == neuronID {
			return true
		}
	}
	return false
}

func hasActuator(genome model.Genome, actuatorID string) bool {
	for _, id := range genome.ActuatorIDs {
		if id == actuatorID {
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

func incomingSynapseIndexes(genome model.Genome, neuronID string) []int {
	indexes := make([]int, 0, len(genome.Synapses))
	for i, syn := range genome.Synapses {
		if syn.To == neuronID {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

func perturbActuatorTunable(genome *model.Genome, actuatorID string, spread float64, randFloat64 func() float64) {
	if genome == nil || actuatorID == "" || spread <= 0 || randFloat64 == nil {
		return
	}
	if genome.ActuatorTunables == nil {
		genome.ActuatorTunables = map[string]float64{}
	}
	delta := (randFloat64()*2 - 1) * spread
	genome.ActuatorTunables[actuatorID] += delta
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
