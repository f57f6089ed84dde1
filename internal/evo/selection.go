package evo

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"bardo/internal/model"
)

// Selector chooses parents from ranked genomes for replication.
type Selector interface {
	Name() string
	PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error)
}

type GenerationAwareSelector interface {
	Selector
	PickParentForGeneration(rng *rand.Rand, ranked []ScoredGenome, eliteCount, generation int) (model.Genome, error)
}

// SpeciesAwareGenerationSelector is a GenerationAwareSelector that also
// accepts the genome-to-species mapping for the current ranked pool, so a
// selector can weigh or filter candidates by species membership.
type SpeciesAwareGenerationSelector interface {
	GenerationAwareSelector
	PickParentForGenerationWithSpecies(rng *rand.Rand, ranked []ScoredGenome, eliteCount, generation int, speciesByGenomeID map[string]string) (model.Genome, error)
}

func requireRankedPool(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if eliteCount <= 0 || eliteCount > len(ranked) {
		return fmt.Errorf("invalid elite count: %d", eliteCount)
	}
	return nil
}

// clampPoolSize resolves a configured pool size against the elite count and
// the size of the ranked pool: zero/negative falls back to 2x the elite
// count, and the result is always clamped into [eliteCount, len(ranked)].
func clampPoolSize(configured, eliteCount, rankedLen int) int {
	poolSize := configured
	if poolSize <= 0 {
		poolSize = eliteCount * 2
	}
	if poolSize < eliteCount {
		poolSize = eliteCount
	}
	if poolSize > rankedLen {
		poolSize = rankedLen
	}
	return poolSize
}

// clampTournamentSize resolves a configured tournament size, defaulting to
// 3 and never exceeding the candidate pool it draws from.
func clampTournamentSize(configured, candidatePoolLen int) int {
	size := configured
	if size <= 0 {
		size = 3
	}
	if size > candidatePoolLen {
		size = candidatePoolLen
	}
	return size
}

// runTournament draws tournamentSize candidates uniformly (with
// replacement) from pickFrom's first poolSize entries and returns the
// fittest one.
func runTournament(rng *rand.Rand, pickFrom []ScoredGenome, poolSize, tournamentSize int) ScoredGenome {
	best := pickFrom[rng.Intn(poolSize)]
	for i := 1; i < tournamentSize; i++ {
		candidate := pickFrom[rng.Intn(poolSize)]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best
}

func groupBySpecies(identifier SpecieIdentifier, pool []ScoredGenome) (map[string][]ScoredGenome, []string) {
	bySpecies := make(map[string][]ScoredGenome, len(pool))
	for _, scored := range pool {
		key := identifier.Identify(scored.Genome)
		bySpecies[key] = append(bySpecies[key], scored)
	}
	keys := make([]string, 0, len(bySpecies))
	for key := range bySpecies {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return bySpecies, keys
}

// EliteSelector picks uniformly from the top elite set.
type EliteSelector struct{}

func (EliteSelector) Name() string {
	return "elite"
}

func (EliteSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	if err := requireRankedPool(rng, ranked, eliteCount); err != nil {
		return model.Genome{}, err
	}
	return ranked[rng.Intn(eliteCount)].Genome, nil
}

// TournamentSelector samples candidates and picks the best fitness among them.
type TournamentSelector struct {
	PoolSize       int
	TournamentSize int
}

func (TournamentSelector) Name() string {
	return "tournament"
}

func (s TournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	if err := requireRankedPool(rng, ranked, eliteCount); err != nil {
		return model.Genome{}, err
	}
	poolSize := clampPoolSize(s.PoolSize, eliteCount, len(ranked))
	tournamentSize := clampTournamentSize(s.TournamentSize, poolSize)
	return runTournament(rng, ranked, poolSize, tournamentSize).Genome, nil
}

// SpeciesTournamentSelector first samples a species uniformly and then runs
// tournament selection inside that species.
type SpeciesTournamentSelector struct {
	Identifier     SpecieIdentifier
	PoolSize       int
	TournamentSize int
}

func (SpeciesTournamentSelector) Name() string {
	return "species_tournament"
}

func (s SpeciesTournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	if err := requireRankedPool(rng, ranked, eliteCount); err != nil {
		return model.Genome{}, err
	}
	if s.Identifier == nil {
		return model.Genome{}, fmt.Errorf("species identifier is required")
	}

	poolSize := clampPoolSize(s.PoolSize, eliteCount, len(ranked))
	bySpecies, speciesKeys := groupBySpecies(s.Identifier, ranked[:poolSize])
	candidates := bySpecies[speciesKeys[rng.Intn(len(speciesKeys))]]

	tournamentSize := clampTournamentSize(s.TournamentSize, len(candidates))
	return runTournament(rng, candidates, len(candidates), tournamentSize).Genome, nil
}

type speciesState struct {
	bestFitness    float64
	lastImprovedAt int
}

// SpeciesSharedTournamentSelector picks a species using shared-fitness weighting,
// optionally filters stagnant species, and then runs tournament inside it.
type SpeciesSharedTournamentSelector struct {
	Identifier            SpecieIdentifier
	PoolSize              int
	TournamentSize        int
	StagnationGenerations int

	mu    sync.Mutex
	state map[string]speciesState
}

func (SpeciesSharedTournamentSelector) Name() string {
	return "species_shared_tournament"
}

func (s *SpeciesSharedTournamentSelector) PickParent(rng *rand.Rand, ranked []ScoredGenome, eliteCount int) (model.Genome, error) {
	return s.PickParentForGeneration(rng, ranked, eliteCount, 0)
}

func (s *SpeciesSharedTournamentSelector) PickParentForGeneration(rng *rand.Rand, ranked []ScoredGenome, eliteCount, generation int) (model.Genome, error) {
	if err := requireRankedPool(rng, ranked, eliteCount); err != nil {
		return model.Genome{}, err
	}
	if s.Identifier == nil {
		return model.Genome{}, fmt.Errorf("species identifier is required")
	}

	poolSize := clampPoolSize(s.PoolSize, eliteCount, len(ranked))
	bySpecies, speciesKeys := groupBySpecies(s.Identifier, ranked[:poolSize])
	if len(speciesKeys) == 0 {
		return model.Genome{}, fmt.Errorf("no species available")
	}

	filtered := s.filterStagnantSpecies(bySpecies, speciesKeys, generation)
	chosenKey := s.pickWeightedSpecies(rng, bySpecies, filtered)
	candidates := bySpecies[chosenKey]

	tournamentSize := clampTournamentSize(s.TournamentSize, len(candidates))
	return runTournament(rng, candidates, len(candidates), tournamentSize).Genome, nil
}

// filterStagnantSpecies drops species whose best fitness hasn't improved
// within StagnationGenerations, falling back to the full key set if that
// would eliminate every species.
func (s *SpeciesSharedTournamentSelector) filterStagnantSpecies(bySpecies map[string][]ScoredGenome, speciesKeys []string, generation int) []string {
	if s.StagnationGenerations <= 0 {
		return speciesKeys
	}
	filtered := make([]string, 0, len(speciesKeys))
	for _, key := range speciesKeys {
		best := bySpecies[key][0].Fitness
		for _, cand := range bySpecies[key][1:] {
			if cand.Fitness > best {
				best = cand.Fitness
			}
		}
		if s.shouldKeepSpecies(key, best, generation) {
			filtered = append(filtered, key)
		}
	}
	if len(filtered) == 0 {
		return speciesKeys
	}
	return filtered
}

// pickWeightedSpecies draws one species from filtered with probability
// proportional to its mean fitness, shifted so every weight is positive.
func (s *SpeciesSharedTournamentSelector) pickWeightedSpecies(rng *rand.Rand, bySpecies map[string][]ScoredGenome, filtered []string) string {
	means := make([]float64, len(filtered))
	minMean := 0.0
	for i, key := range filtered {
		sum := 0.0
		for _, cand := range bySpecies[key] {
			sum += cand.Fitness
		}
		mean := sum / float64(len(bySpecies[key]))
		means[i] = mean
		if i == 0 || mean < minMean {
			minMean = mean
		}
	}
	shift := 0.0
	if minMean <= 0 {
		shift = -minMean + 1e-9
	}
	total := 0.0
	for i := range means {
		means[i] += shift
		total += means[i]
	}
	if total <= 0 {
		for i := range means {
			means[i] = 1
		}
		total = float64(len(means))
	}

	pick := rng.Float64() * total
	acc := 0.0
	for i, key := range filtered {
		acc += means[i]
		if pick <= acc {
			return key
		}
	}
	return filtered[len(filtered)-1]
}

func (s *SpeciesSharedTournamentSelector) shouldKeepSpecies(key string, bestFitness float64, generation int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		s.state = make(map[string]speciesState)
	}
	prev, ok := s.state[key]
	if !ok || bestFitness > prev.bestFitness {
		s.state[key] = speciesState{bestFitness: bestFitness, lastImprovedAt: generation}
		return true
	}
	return generation-prev.lastImprovedAt <= s.StagnationGenerations
}
