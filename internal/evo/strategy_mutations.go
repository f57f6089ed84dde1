package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"bardo/internal/model"
	"bardo/internal/tuning"
)

// PerturbSubstrateParameter mutates one substrate parameter when configured.
type PerturbSubstrateParameter struct {
	Rand     *rand.Rand
	MaxDelta float64
	Keys     []string
}

func (o *PerturbSubstrateParameter) Name() string {
	return "perturb_substrate_parameter"
}

func (o *PerturbSubstrateParameter) Applicable(genome model.Genome, _ string) bool {
	return genome.Substrate != nil && len(genome.Substrate.Parameters) > 0
}

func (o *PerturbSubstrateParameter) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	if o.MaxDelta <= 0 {
		return model.Genome{}, errors.New("max delta must be > 0")
	}
	if genome.Substrate == nil || len(genome.Substrate.Parameters) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	keys := append([]string(nil), o.Keys...)
	if len(keys) == 0 {
		for key := range genome.Substrate.Parameters {
			keys = append(keys, key)
		}
	}
	filtered := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, ok := genome.Substrate.Parameters[key]; ok {
			filtered = append(filtered, key)
		}
	}
	if len(filtered) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}

	selected := filtered[o.Rand.Intn(len(filtered))]
	delta := (o.Rand.Float64()*2 - 1) * o.MaxDelta
	mutated := cloneGenome(genome)
	mutated.Substrate.Parameters[selected] += delta
	return mutated, nil
}

// MutateTuningSelection changes which tuning candidate-selection mode the
// Exoself tuning phase uses, when more than one option is configured.
type MutateTuningSelection struct {
	Rand  *rand.Rand
	Modes []string
}

func (o *MutateTuningSelection) Name() string {
	return "mutate_tuning_selection"
}

func (o *MutateTuningSelection) Applicable(_ model.Genome, _ string) bool {
	modes := append([]string(nil), o.Modes...)
	if len(modes) == 0 {
		return true
	}
	normalized := make([]string, 0, len(modes))
	seen := make(map[string]struct{}, len(modes))
	for _, mode := range modes {
		name := tuning.NormalizeCandidateSelectionName(mode)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	return len(normalized) > 1
}

func (o *MutateTuningSelection) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	modes := append([]string(nil), o.Modes...)
	if len(modes) == 0 {
		modes = []string{
			tuning.CandidateSelectBestSoFar,
			tuning.CandidateSelectOriginal,
			tuning.CandidateSelectDynamicA,
			tuning.CandidateSelectDynamic,
			tuning.CandidateSelectActive,
			tuning.CandidateSelectActiveRnd,
			tuning.CandidateSelectRecent,
			tuning.CandidateSelectRecentRnd,
			tuning.CandidateSelectAll,
			tuning.CandidateSelectAllRandom,
			tuning.CandidateSelectCurrent,
			tuning.CandidateSelectCurrentRd,
			tuning.CandidateSelectLastGen,
			tuning.CandidateSelectLastGenRd,
		}
	}
	normalized := make([]string, 0, len(modes))
	seen := make(map[string]struct{}, len(modes))
	for _, mode := range modes {
		name := tuning.NormalizeCandidateSelectionName(mode)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		normalized = append(normalized, name)
	}
	mutated := cloneGenome(genome)
	ensureStrategyConfig(&mutated)
	current := tuning.NormalizeCandidateSelectionName(mutated.Strategy.TuningSelection)
	choices := filterOutString(normalized, current)
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated.Strategy.TuningSelection = choices[o.Rand.Intn(len(choices))]
	return mutated, nil
}

// MutateTuningAnnealing changes the tuning annealing factor to one of a set
// of annealing values, when more than one option is configured.
type MutateTuningAnnealing struct {
	Rand   *rand.Rand
	Values []float64
}

func (o *MutateTuningAnnealing) Name() string {
	return "mutate_tuning_annealing"
}

func (o *MutateTuningAnnealing) Applicable(_ model.Genome, _ string) bool {
	values := append([]float64(nil), o.Values...)
	if len(values) == 0 {
		return true
	}
	seen := make(map[int64]struct{}, len(values))
	unique := 0
	for _, value := range values {
		if value <= 0 {
			continue
		}
		key := int64(value * 1e9)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique++
	}
	return unique > 1
}

func (o *MutateTuningAnnealing) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	values := append([]float64(nil), o.Values...)
	if len(values) == 0 {
		values = []float64{0.5, 0.65, 0.8, 0.9, 0.95, 1.0}
	}
	mutated := cloneGenome(genome)
	ensureStrategyConfig(&mutated)
	current := mutated.Strategy.AnnealingFactor
	if current == 0 {
		current = 1.0
	}
	choices := make([]float64, 0, len(values))
	for _, value := range values {
		if value <= 0 {
			continue
		}
		if math.Abs(value-current) < 1e-9 {
			continue
		}
		choices = append(choices, value)
	}
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated.Strategy.AnnealingFactor = choices[o.Rand.Intn(len(choices))]
	return mutated, nil
}

// MutateTotTopologicalMutations changes the policy governing how many
// topological mutations a reproduction round applies.
type MutateTotTopologicalMutations struct {
	Rand     *rand.Rand
	Policies []string
	Choices  []TopologicalPolicyChoice
}

type TopologicalPolicyChoice struct {
	Name  string
	Param float64
}

func (o *MutateTotTopologicalMutations) Name() string {
	return "mutate_tot_topological_mutations"
}

func (o *MutateTotTopologicalMutations) Applicable(_ model.Genome, _ string) bool {
	if len(o.Choices) > 0 {
		unique := make(map[string]struct{}, len(o.Choices))
		for _, choice := range o.Choices {
			name := choice.Name
			if name == "" {
				continue
			}
			param := choice.Param
			if param <= 0 {
				param = defaultTopologicalParam(name)
			}
			key := fmt.Sprintf("%s:%0.9f", name, param)
			unique[key] = struct{}{}
		}
		return len(unique) > 1
	}
	policies := append([]string(nil), o.Policies...)
	if len(policies) == 0 {
		return true
	}
	normalized := make(map[string]struct{}, len(policies))
	for _, policy := range policies {
		if policy == "" {
			continue
		}
		normalized[policy] = struct{}{}
	}
	return len(normalized) > 1
}

func (o *MutateTotTopologicalMutations) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	mutated := cloneGenome(genome)
	ensureStrategyConfig(&mutated)

	choices := append([]TopologicalPolicyChoice(nil), o.Choices...)
	if len(choices) == 0 && len(o.Policies) > 0 {
		for _, name := range o.Policies {
			if name == "" {
				continue
			}
			choices = append(choices, TopologicalPolicyChoice{
				Name:  name,
				Param: defaultTopologicalParam(name),
			})
		}
	}
	if len(choices) == 0 {
		choices = []TopologicalPolicyChoice{
			{Name: "const", Param: 1.0},
			{Name: "ncount_linear", Param: 1.0},
			{Name: "ncount_exponential", Param: 0.5},
		}
	}
	filteredChoices := make([]TopologicalPolicyChoice, 0, len(choices))
	for _, choice := range choices {
		if choice.Name == "" || choice.Param <= 0 {
			continue
		}
		filteredChoices = append(filteredChoices, choice)
	}
	if len(filteredChoices) == 0 {
		return mutated, nil
	}

	current := mutated.Strategy.TopologicalMode
	if current == "" {
		current = "const"
	}
	currentParam := mutated.Strategy.TopologicalParam
	if currentParam <= 0 {
		currentParam = defaultTopologicalParam(current)
	}
	available := make([]TopologicalPolicyChoice, 0, len(filteredChoices))
	for _, choice := range filteredChoices {
		if choice.Name == current && math.Abs(choice.Param-currentParam) < 1e-9 {
			continue
		}
		available = append(available, choice)
	}
	if len(available) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	selected := available[o.Rand.Intn(len(available))]
	mutated.Strategy.TopologicalMode = selected.Name
	mutated.Strategy.TopologicalParam = selected.Param
	return mutated, nil
}

// MutateHeredityType changes the configured heredity/reproduction strategy.
type MutateHeredityType struct {
	Rand  *rand.Rand
	Types []string
}

func (o *MutateHeredityType) Name() string {
	return "mutate_heredity_type"
}

func (o *MutateHeredityType) Applicable(_ model.Genome, _ string) bool {
	types := append([]string(nil), o.Types...)
	if len(types) == 0 {
		return true
	}
	normalized := make(map[string]struct{}, len(types))
	for _, item := range types {
		if item == "" {
			continue
		}
		normalized[item] = struct{}{}
	}
	return len(normalized) > 1
}

func (o *MutateHeredityType) Apply(_ context.Context, genome model.Genome) (model.Genome, error) {
	if o == nil || o.Rand == nil {
		return model.Genome{}, errors.New("random source is required")
	}
	types := append([]string(nil), o.Types...)
	if len(types) == 0 {
		types = []string{"asexual", "crossover", "competition"}
	}
	mutated := cloneGenome(genome)
	ensureStrategyConfig(&mutated)
	current := mutated.Strategy.HeredityType
	if current == "" {
		current = "asexual"
	}
	choices := filterOutString(types, current)
	if len(choices) == 0 {
		return model.Genome{}, ErrNoMutationChoice
	}
	mutated.Strategy.HeredityType = choices[o.Rand.Intn(len(choices))]
	return mutated, nil
}
