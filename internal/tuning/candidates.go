package tuning

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"bardo/internal/model"
)

// NormalizeCandidateSelectionName maps an exact or legacy-spelled selection
// mode onto its canonical constant, passing unrecognized names through
// unchanged.
func NormalizeCandidateSelectionName(name string) string {
	switch name {
	case "", CandidateSelectBestSoFar:
		return CandidateSelectBestSoFar
	case CandidateSelectOriginal:
		return CandidateSelectOriginal
	case CandidateSelectDynamicA:
		return CandidateSelectDynamicA
	case CandidateSelectDynamic:
		return CandidateSelectDynamic
	case CandidateSelectAll:
		return CandidateSelectAll
	case CandidateSelectAllRandom:
		return CandidateSelectAllRandom
	case CandidateSelectActive:
		return CandidateSelectActive
	case CandidateSelectActiveRnd:
		return CandidateSelectActiveRnd
	case CandidateSelectRecent:
		return CandidateSelectRecent
	case CandidateSelectRecentRnd:
		return CandidateSelectRecentRnd
	case CandidateSelectCurrent:
		return CandidateSelectCurrent
	case CandidateSelectCurrentRd:
		return CandidateSelectCurrentRd
	case CandidateSelectLastGen:
		return CandidateSelectLastGen
	case CandidateSelectLastGenRd:
		return CandidateSelectLastGenRd
	default:
		return name
	}
}

// candidateBases resolves which genome(s) a perturbation round should start
// from, given e.CandidateSelection: a "_random" mode first resolves its
// non-random base pool, then subsamples it.
func (e *Exoself) candidateBases(best, original, recent model.Genome) ([]model.Genome, error) {
	mode := NormalizeCandidateSelectionName(e.CandidateSelection)
	if isRandomSelection(mode) {
		pool, err := e.candidateBasesForMode(nonRandomModeFor(mode), best, original, recent)
		if err != nil {
			return nil, err
		}
		return e.randomSubset(pool), nil
	}
	return e.candidateBasesForMode(mode, best, original, recent)
}

func (e *Exoself) candidateBasesForMode(mode string, best, original, recent model.Genome) ([]model.Genome, error) {
	candidates := uniqueCandidatePool(best, original, recent)
	if len(candidates) == 0 {
		return nil, errors.New("empty candidate pool")
	}
	switch mode {
	case CandidateSelectBestSoFar:
		return []model.Genome{cloneGenome(best)}, nil
	case CandidateSelectOriginal:
		return []model.Genome{cloneGenome(original)}, nil
	case CandidateSelectAll:
		return cloneCandidatePool(candidates), nil
	case CandidateSelectLastGen:
		return filterCandidatesByAge(candidates, 0), nil
	case CandidateSelectDynamicA:
		return filterCandidatesByAge(candidates, dynamicAgeLimit(e.randFloat64())), nil
	case CandidateSelectActive, CandidateSelectRecent:
		return filterCandidatesByAge(candidates, 3), nil
	case CandidateSelectCurrent:
		return filterCandidatesByAge(candidates, 0), nil
	default:
		return nil, errors.New("unsupported candidate selection")
	}
}

func isRandomSelection(mode string) bool {
	switch mode {
	case CandidateSelectDynamic, CandidateSelectAllRandom, CandidateSelectActiveRnd, CandidateSelectRecentRnd, CandidateSelectCurrentRd, CandidateSelectLastGenRd:
		return true
	default:
		return false
	}
}

func nonRandomModeFor(mode string) string {
	switch mode {
	case CandidateSelectDynamic:
		return CandidateSelectDynamicA
	case CandidateSelectAllRandom:
		return CandidateSelectAll
	case CandidateSelectActiveRnd:
		return CandidateSelectActive
	case CandidateSelectRecentRnd:
		return CandidateSelectRecent
	case CandidateSelectCurrentRd:
		return CandidateSelectCurrent
	case CandidateSelectLastGenRd:
		return CandidateSelectCurrent
	default:
		return mode
	}
}

// dynamicAgeLimit computes the sqrt(1/U) age-limit curve: a draw close to 1
// keeps only the newest candidates, a draw close to 0 reaches arbitrarily
// far back.
func dynamicAgeLimit(u float64) float64 {
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}
	return math.Sqrt(1 / u)
}

func uniqueCandidatePool(best, original, recent model.Genome) []model.Genome {
	seen := map[string]struct{}{}
	out := make([]model.Genome, 0, 3)
	for _, g := range []model.Genome{best, original, recent} {
		key := g.ID
		if key == "" {
			key = strconv.Itoa(len(out))
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, cloneGenome(g))
	}
	return out
}

func cloneCandidatePool(pool []model.Genome) []model.Genome {
	out := make([]model.Genome, 0, len(pool))
	for i := range pool {
		out = append(out, cloneGenome(pool[i]))
	}
	return out
}

func filterCandidatesByAge(pool []model.Genome, maxAge float64) []model.Genome {
	if len(pool) == 0 {
		return nil
	}
	currentGen := 0
	knownCurrent := false
	for _, g := range pool {
		gen, ok := inferGenomeGeneration(g.ID)
		if !ok {
			continue
		}
		if !knownCurrent || gen > currentGen {
			currentGen = gen
			knownCurrent = true
		}
	}
	filtered := make([]model.Genome, 0, len(pool))
	for _, g := range pool {
		gen, ok := inferGenomeGeneration(g.ID)
		if !knownCurrent || !ok {
			filtered = append(filtered, cloneGenome(g))
			continue
		}
		age := currentGen - gen
		if float64(age) <= maxAge {
			filtered = append(filtered, cloneGenome(g))
		}
	}
	if len(filtered) > 0 {
		return filtered
	}
	return []model.Genome{cloneGenome(pool[0])}
}

// inferGenomeGeneration extracts a "-gN-" style generation marker from an
// id, used as a fallback when a genome carries no explicit generation.
func inferGenomeGeneration(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for _, part := range strings.Split(id, "-") {
		if len(part) > 1 && part[0] == 'g' {
			if gen, err := strconv.Atoi(part[1:]); err == nil {
				return gen, true
			}
		}
	}
	return 0, false
}

func (e *Exoself) randomSubset(pool []model.Genome) []model.Genome {
	if len(pool) <= 1 {
		return pool
	}
	mutationP := 1 / math.Sqrt(float64(len(pool)))
	chosen := make([]model.Genome, 0, len(pool))
	for i := range pool {
		if e.randFloat64() < mutationP {
			chosen = append(chosen, cloneGenome(pool[i]))
		}
	}
	if len(chosen) > 0 {
		return chosen
	}
	return []model.Genome{cloneGenome(pool[e.randIntn(len(pool))])}
}
