package evo

import (
	"fmt"
	"math/rand"

	"bardo/internal/genotype"
	protoio "bardo/internal/io"
	"bardo/internal/model"
	"bardo/internal/nn"
	"bardo/internal/tuning"
)

func cloneGenome(g model.Genome) model.Genome {
	return genotype.CloneGenome(g)
}

func hasNeuron(g model.Genome, id string) bool {
	for _, n := range g.Neurons {
		if n.ID == id {
			return true
		}
	}
	return false
}

func hasActuator(g model.Genome, id string) bool {
	for _, actuatorID := range g.ActuatorIDs {
		if actuatorID == id {
			return true
		}
	}
	return false
}

func hasSynapse(g model.Genome, id string) bool {
	for _, s := range g.Synapses {
		if s.ID == id {
			return true
		}
	}
	return false
}

func uniqueSynapseID(g model.Genome, rng *rand.Rand) string {
	for {
		candidate := fmt.Sprintf("srand-%d", rng.Int63())
		if !hasSynapse(g, candidate) {
			return candidate
		}
	}
}

func uniqueNeuronID(g model.Genome, rng *rand.Rand) string {
	for {
		candidate := fmt.Sprintf("nrand-%d", rng.Int63())
		if !hasNeuron(g, candidate) {
			return candidate
		}
	}
}

func toIDSet(ids []string) map[string]struct{} {
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		out[id] = struct{}{}
	}
	return out
}

func inferFeedforwardLayers(genome model.Genome, inputNeuronIDs, outputNeuronIDs []string) map[string]int {
	layers := make(map[string]int, len(genome.Neurons))
	inputSet := toIDSet(inputNeuronIDs)
	outputSet := toIDSet(outputNeuronIDs)
	for _, n := range genome.Neurons {
		switch {
		case containsID(inputSet, n.ID):
			layers[n.ID] = 0
		case containsID(outputSet, n.ID):
			layers[n.ID] = 2
		default:
			layers[n.ID] = 1
		}
	}
	// Relax edge ordering to infer a monotonic feedforward layer ranking.
	for i := 0; i < len(genome.Neurons); i++ {
		changed := false
		for _, s := range genome.Synapses {
			fromLayer, okFrom := layers[s.From]
			toLayer, okTo := layers[s.To]
			if !okFrom || !okTo {
				continue
			}
			candidate := fromLayer + 1
			if candidate > toLayer {
				layers[s.To] = candidate
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return layers
}

func isFeedforwardEdge(layers map[string]int, fromID, toID string) bool {
	fromLayer, okFrom := layers[fromID]
	toLayer, okTo := layers[toID]
	if !okFrom || !okTo {
		return false
	}
	return fromLayer < toLayer
}

func filterDirectedFeedforwardCandidates(fromCandidates, toCandidates []string, layers map[string]int) ([]string, []string) {
	allowedFrom := make(map[string]struct{}, len(fromCandidates))
	allowedTo := make(map[string]struct{}, len(toCandidates))
	for _, from := range fromCandidates {
		for _, to := range toCandidates {
			if isFeedforwardEdge(layers, from, to) {
				allowedFrom[from] = struct{}{}
				allowedTo[to] = struct{}{}
			}
		}
	}
	filteredFrom := make([]string, 0, len(allowedFrom))
	for _, from := range fromCandidates {
		if containsID(allowedFrom, from) {
			filteredFrom = append(filteredFrom, from)
		}
	}
	filteredTo := make([]string, 0, len(allowedTo))
	for _, to := range toCandidates {
		if containsID(allowedTo, to) {
			filteredTo = append(filteredTo, to)
		}
	}
	return filteredFrom, filteredTo
}

func containsID(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}

func ensureStrategyConfig(g *model.Genome) {
	if g == nil {
		return
	}
	if g.Strategy == nil {
		g.Strategy = &model.StrategyConfig{
			TuningSelection:  tuning.CandidateSelectBestSoFar,
			AnnealingFactor:  1.0,
			TopologicalMode:  "const",
			TopologicalParam: 1.0,
			HeredityType:     "asexual",
		}
		return
	}
	if g.Strategy.TuningSelection == "" {
		g.Strategy.TuningSelection = tuning.CandidateSelectBestSoFar
	}
	if g.Strategy.AnnealingFactor == 0 {
		g.Strategy.AnnealingFactor = 1.0
	}
	if g.Strategy.TopologicalMode == "" {
		g.Strategy.TopologicalMode = "const"
	}
	if g.Strategy.TopologicalParam <= 0 {
		g.Strategy.TopologicalParam = defaultTopologicalParam(g.Strategy.TopologicalMode)
	}
	if g.Strategy.HeredityType == "" {
		g.Strategy.HeredityType = "asexual"
	}
}

func defaultTopologicalParam(mode string) float64 {
	switch mode {
	case "const":
		return 1.0
	case "ncount_linear":
		return 1.0
	case "ncount_exponential":
		return 0.5
	default:
		return 0.5
	}
}

func filterNeuronIDs(g model.Genome, keep func(id string) bool) []string {
	out := make([]string, 0, len(g.Neurons))
	for _, n := range g.Neurons {
		if keep == nil || keep(n.ID) {
			out = append(out, n.ID)
		}
	}
	return out
}

func addDirectedRandomSynapse(genome model.Genome, rng *rand.Rand, maxAbsWeight float64, fromCandidates, toCandidates []string) (model.Genome, error) {
	if len(fromCandidates) == 0 || len(toCandidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	type pair struct {
		from string
		to   string
	}
	candidates := make([]pair, 0, len(fromCandidates)*len(toCandidates))
	for _, from := range fromCandidates {
		for _, to := range toCandidates {
			if hasDirectedSynapse(genome, from, to) {
				continue
			}
			candidates = append(candidates, pair{from: from, to: to})
		}
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := candidates[rng.Intn(len(candidates))]
	id := uniqueSynapseID(genome, rng)
	weight := (rng.Float64()*2 - 1) * maxAbsWeight

	mutated := cloneGenome(genome)
	mutated.Synapses = append(mutated.Synapses, model.Synapse{
		ID:        id,
		From:      selected.from,
		To:        selected.to,
		Weight:    weight,
		Enabled:   true,
		Recurrent: selected.from == selected.to,
	})
	return mutated, nil
}

type directedNeuronPair struct {
	from string
	to   string
}

func availableInlinkNeuronPairs(genome model.Genome, fromCandidates, toCandidates []string) []directedNeuronPair {
	if len(fromCandidates) == 0 || len(toCandidates) == 0 {
		return nil
	}
	pairs := make([]directedNeuronPair, 0, len(fromCandidates)*len(toCandidates))
	for _, from := range fromCandidates {
		for _, to := range toCandidates {
			if hasDirectedSynapse(genome, from, to) {
				continue
			}
			pairs = append(pairs, directedNeuronPair{from: from, to: to})
		}
	}
	return pairs
}

func availableSensorToNeuronPairs(genome model.Genome, toCandidates []string) []model.SensorNeuronLink {
	if len(genome.SensorIDs) == 0 || len(toCandidates) == 0 {
		return nil
	}
	targetSet := make(map[string]struct{}, len(toCandidates))
	for _, id := range toCandidates {
		targetSet[id] = struct{}{}
	}
	pairs := make([]model.SensorNeuronLink, 0, len(genome.SensorIDs)*len(toCandidates))
	for _, sensorID := range uniqueStrings(genome.SensorIDs) {
		for _, neuronID := range toCandidates {
			if _, ok := targetSet[neuronID]; !ok {
				continue
			}
			if hasSensorNeuronLink(genome, sensorID, neuronID) {
				continue
			}
			pairs = append(pairs, model.SensorNeuronLink{
				SensorID: sensorID,
				NeuronID: neuronID,
			})
		}
	}
	return pairs
}

func hasDirectedSynapse(g model.Genome, from, to string) bool {
	for _, syn := range g.Synapses {
		if syn.From == from && syn.To == to {
			return true
		}
	}
	return false
}

func hasAvailableDirectedPair(g model.Genome, fromCandidates, toCandidates []string) bool {
	if len(fromCandidates) == 0 || len(toCandidates) == 0 {
		return false
	}
	for _, from := range fromCandidates {
		for _, to := range toCandidates {
			if !hasDirectedSynapse(g, from, to) {
				return true
			}
		}
	}
	return false
}

func removeDirectedRandomSynapse(genome model.Genome, rng *rand.Rand, keep func(s model.Synapse) bool) (model.Genome, error) {
	candidates := make([]int, 0, len(genome.Synapses))
	for i, syn := range genome.Synapses {
		if keep == nil || keep(syn) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	idx := candidates[rng.Intn(len(candidates))]
	mutated := cloneGenome(genome)
	mutated.Synapses = append(mutated.Synapses[:idx], mutated.Synapses[idx+1:]...)
	return mutated, nil
}

func sensorCandidates(genome model.Genome, scapeName string) []string {
	existing := toIDSet(genome.SensorIDs)
	candidates := make([]string, 0)
	for _, name := range protoio.ListSensors() {
		if _, ok := existing[name]; ok {
			continue
		}
		if _, err := protoio.ResolveSensor(name, scapeName); err != nil {
			continue
		}
		candidates = append(candidates, name)
	}
	return candidates
}

func actuatorCandidates(genome model.Genome, scapeName string) []string {
	existing := toIDSet(genome.ActuatorIDs)
	candidates := make([]string, 0)
	for _, name := range protoio.ListActuators() {
		if _, ok := existing[name]; ok {
			continue
		}
		if _, err := protoio.ResolveActuator(name, scapeName); err != nil {
			continue
		}
		candidates = append(candidates, name)
	}
	return candidates
}

func filterOutString(values []string, drop string) []string {
	out := make([]string, 0, len(values))
	for _, item := range values {
		if item == drop {
			continue
		}
		out = append(out, item)
	}
	return out
}

func neuronPlasticityRule(genome model.Genome, idx int) string {
	if idx < 0 || idx >= len(genome.Neurons) {
		return nn.PlasticityNone
	}
	if rule := nn.NormalizePlasticityRuleName(genome.Neurons[idx].PlasticityRule); rule != "" {
		return rule
	}
	if genome.Plasticity != nil {
		return nn.NormalizePlasticityRuleName(genome.Plasticity.Rule)
	}
	return nn.PlasticityNone
}

func neuronPlasticityRate(genome model.Genome, idx int) float64 {
	if idx >= 0 && idx < len(genome.Neurons) && genome.Neurons[idx].PlasticityRate > 0 {
		return genome.Neurons[idx].PlasticityRate
	}
	if genome.Plasticity != nil && genome.Plasticity.Rate > 0 {
		return genome.Plasticity.Rate
	}
	return 0.1
}

func neuronPlasticityA(genome model.Genome, idx int) float64 {
	if idx >= 0 && idx < len(genome.Neurons) && genome.Neurons[idx].PlasticityA != 0 {
		return genome.Neurons[idx].PlasticityA
	}
	if genome.Plasticity != nil && genome.Plasticity.CoeffA != 0 {
		return genome.Plasticity.CoeffA
	}
	return 0
}

func neuronPlasticityB(genome model.Genome, idx int) float64 {
	if idx >= 0 && idx < len(genome.Neurons) && genome.Neurons[idx].PlasticityB != 0 {
		return genome.Neurons[idx].PlasticityB
	}
	if genome.Plasticity != nil && genome.Plasticity.CoeffB != 0 {
		return genome.Plasticity.CoeffB
	}
	return 0
}

func neuronPlasticityC(genome model.Genome, idx int) float64 {
	if idx >= 0 && idx < len(genome.Neurons) && genome.Neurons[idx].PlasticityC != 0 {
		return genome.Neurons[idx].PlasticityC
	}
	if genome.Plasticity != nil && genome.Plasticity.CoeffC != 0 {
		return genome.Plasticity.CoeffC
	}
	return 0
}

func neuronPlasticityD(genome model.Genome, idx int) float64 {
	if idx >= 0 && idx < len(genome.Neurons) && genome.Neurons[idx].PlasticityD != 0 {
		return genome.Neurons[idx].PlasticityD
	}
	if genome.Plasticity != nil && genome.Plasticity.CoeffD != 0 {
		return genome.Plasticity.CoeffD
	}
	return 0
}

func plasticityRuleUsesGeneralizedCoefficients(rule string) bool {
	switch nn.NormalizePlasticityRuleName(rule) {
	case nn.PlasticitySelfModulationV1,
		nn.PlasticitySelfModulationV2,
		nn.PlasticitySelfModulationV3,
		nn.PlasticitySelfModulationV4,
		nn.PlasticitySelfModulationV5,
		nn.PlasticitySelfModulationV6,
		nn.PlasticityNeuromodulation:
		return true
	default:
		return false
	}
}

func selfModulationParameterWidth(rule string) int {
	switch nn.NormalizePlasticityRuleName(rule) {
	case nn.PlasticitySelfModulationV1, nn.PlasticitySelfModulationV2, nn.PlasticitySelfModulationV3:
		return 1
	case nn.PlasticitySelfModulationV4, nn.PlasticitySelfModulationV5:
		return 2
	case nn.PlasticitySelfModulationV6:
		return 5
	default:
		return 0
	}
}

func selfModulationRuleUsesCoefficientMutation(rule string) bool {
	switch nn.NormalizePlasticityRuleName(rule) {
	case nn.PlasticitySelfModulationV2, nn.PlasticitySelfModulationV3, nn.PlasticitySelfModulationV5:
		return true
	default:
		return false
	}
}

func mutateNeuronPlasticityCoefficients(mutated *model.Genome, base model.Genome, neuronIdx int, delta float64, rng *rand.Rand) {
	if mutated == nil || rng == nil || neuronIdx < 0 || neuronIdx >= len(mutated.Neurons) {
		return
	}
	switch rng.Intn(4) {
	case 0:
		mutated.Neurons[neuronIdx].PlasticityA = neuronPlasticityA(base, neuronIdx) + delta
	case 1:
		mutated.Neurons[neuronIdx].PlasticityB = neuronPlasticityB(base, neuronIdx) + delta
	case 2:
		mutated.Neurons[neuronIdx].PlasticityC = neuronPlasticityC(base, neuronIdx) + delta
	default:
		mutated.Neurons[neuronIdx].PlasticityD = neuronPlasticityD(base, neuronIdx) + delta
	}
}

func mutateSelfModulationParameterVector(
	mutated *model.Genome,
	base model.Genome,
	neuronIdx int,
	width int,
	delta float64,
	rng *rand.Rand,
) bool {
	if mutated == nil || width <= 0 || rng == nil || neuronIdx < 0 || neuronIdx >= len(base.Neurons) {
		return false
	}

	type vectorTarget struct {
		synapseIdx int
		bias       bool
	}

	neuronID := base.Neurons[neuronIdx].ID
	candidates := make([]vectorTarget, 0, 1)
	candidates = append(candidates, vectorTarget{bias: true})
	for i := range base.Synapses {
		if !base.Synapses[i].Enabled || base.Synapses[i].To != neuronID {
			continue
		}
		candidates = append(candidates, vectorTarget{synapseIdx: i})
	}

	target := candidates[rng.Intn(len(candidates))]
	var params []float64
	if target.bias {
		params = append([]float64(nil), mutated.Neurons[neuronIdx].PlasticityBiasParams...)
	} else {
		params = append([]float64(nil), mutated.Synapses[target.synapseIdx].PlasticityParams...)
	}
	if len(params) < width {
		params = append(params, make([]float64, width-len(params))...)
	}
	paramIdx := rng.Intn(width)
	params[paramIdx] += delta
	if target.bias {
		mutated.Neurons[neuronIdx].PlasticityBiasParams = params
	} else {
		mutated.Synapses[target.synapseIdx].PlasticityParams = params
	}
	return true
}

func normalizeNonEmptyStrings(values []string) []string {
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
	return out
}

func normalizePlasticityRuleOptions(rules []string) []string {
	seen := make(map[string]struct{}, len(rules))
	out := make([]string, 0, len(rules))
	for _, rule := range rules {
		name := nn.NormalizePlasticityRuleName(rule)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func defaultPlasticityRules() []string {
	return []string{
		nn.PlasticityNone,
		nn.PlasticityHebbian,
		nn.PlasticityOja,
		nn.PlasticitySelfModulationV1,
		nn.PlasticitySelfModulationV2,
		nn.PlasticitySelfModulationV3,
		nn.PlasticitySelfModulationV4,
		nn.PlasticitySelfModulationV5,
		nn.PlasticitySelfModulationV6,
		nn.PlasticityNeuromodulation,
	}
}

