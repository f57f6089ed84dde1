package tuning

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"bardo/internal/model"
)

// Exoself is a stochastic hill-climber: each round it perturbs a handful of
// neuron weights or actuator tunables, keeps whichever variant improved
// fitness the most, and repeats until attempts rounds pass with no gain (or
// GoalFitness is reached).
type Exoself struct {
	Rand               *rand.Rand
	Steps              int
	StepSize           float64
	PerturbationRange  float64
	AnnealingFactor    float64
	MinImprovement     float64
	GoalFitness        float64
	CandidateSelection string
	mu                 sync.Mutex
}

// Candidate-base selection modes, mirroring the reference tuning
// implementation's named heuristics for which prior genome(s) a round of
// perturbation should start from.
const (
	CandidateSelectBestSoFar = "best_so_far"
	CandidateSelectOriginal  = "original"
	CandidateSelectDynamicA  = "dynamic"
	CandidateSelectDynamic   = "dynamic_random"
	CandidateSelectAll       = "all"
	CandidateSelectAllRandom = "all_random"
	CandidateSelectActive    = "active"
	CandidateSelectActiveRnd = "active_random"
	CandidateSelectRecent    = "recent"
	CandidateSelectRecentRnd = "recent_random"
	CandidateSelectCurrent   = "current"
	CandidateSelectCurrentRd = "current_random"
	CandidateSelectLastGen   = "lastgen"
	CandidateSelectLastGenRd = "lastgen_random"
)

func (e *Exoself) Name() string {
	return "exoself_hillclimb"
}

func (e *Exoself) SetGoalFitness(goal float64) {
	e.GoalFitness = goal
}

func (e *Exoself) Tune(ctx context.Context, genome model.Genome, attempts int, fitness FitnessFn) (model.Genome, error) {
	tuned, _, err := e.TuneWithReport(ctx, genome, attempts, fitness)
	return tuned, err
}

// TuneWithReport runs the hill-climb and additionally reports how many
// rounds and candidate evaluations it took, whether GoalFitness was
// reached, and how many candidates were accepted versus rejected.
func (e *Exoself) TuneWithReport(ctx context.Context, genome model.Genome, attempts int, fitness FitnessFn) (model.Genome, TuneReport, error) {
	report := TuneReport{AttemptsPlanned: attempts}
	if err := ctx.Err(); err != nil {
		return model.Genome{}, report, err
	}
	if err := e.validateTuneInputs(attempts, fitness); err != nil {
		if attempts <= 0 {
			return cloneGenome(genome), report, nil
		}
		return model.Genome{}, report, err
	}
	if len(genome.Synapses) == 0 {
		return cloneGenome(genome), report, nil
	}
	perturbationRange := e.PerturbationRange
	if perturbationRange == 0 {
		perturbationRange = 1.0
	}
	annealingFactor := e.AnnealingFactor
	if annealingFactor == 0 {
		annealingFactor = 1.0
	}

	best := cloneGenome(genome)
	bestFitness, err := fitness(ctx, best)
	if err != nil {
		return model.Genome{}, report, err
	}
	report.CandidateEvaluations++
	if e.GoalFitness > 0 && bestFitness >= e.GoalFitness {
		report.GoalReached = true
		return best, report, nil
	}
	recentBase := cloneGenome(best)

	consecutiveNoImprovement := 0
	for consecutiveNoImprovement < attempts {
		report.AttemptsExecuted++
		localBest, localBestFitness, err := e.runRound(ctx, best, bestFitness, genome, recentBase, perturbationRange, annealingFactor, fitness, &report)
		if err != nil {
			return model.Genome{}, report, err
		}
		recentBase = cloneGenome(localBest)
		improved := scalarFitnessDominates(localBestFitness, bestFitness, e.MinImprovement)
		if improved {
			best = localBest
			bestFitness = localBestFitness
			consecutiveNoImprovement = 0
		} else {
			consecutiveNoImprovement++
		}
		if e.GoalFitness > 0 && bestFitness >= e.GoalFitness {
			report.GoalReached = true
			break
		}
	}

	return best, report, nil
}

func (e *Exoself) validateTuneInputs(attempts int, fitness FitnessFn) error {
	if e == nil || e.Rand == nil {
		return errors.New("random source is required")
	}
	if attempts <= 0 {
		return nil
	}
	if e.Steps <= 0 {
		return errors.New("steps must be > 0")
	}
	if e.StepSize <= 0 {
		return errors.New("step size must be > 0")
	}
	if e.PerturbationRange < 0 {
		return errors.New("perturbation range must be >= 0")
	}
	if e.AnnealingFactor < 0 {
		return errors.New("annealing factor must be >= 0")
	}
	if e.MinImprovement < 0 {
		return errors.New("min improvement must be >= 0")
	}
	if fitness == nil {
		return errors.New("fitness function is required")
	}
	return nil
}

// runRound perturbs every candidate base for this round and returns
// whichever variant scored best, alongside its fitness.
func (e *Exoself) runRound(
	ctx context.Context,
	best model.Genome,
	bestFitness float64,
	original, recent model.Genome,
	perturbationRange, annealingFactor float64,
	fitness FitnessFn,
	report *TuneReport,
) (model.Genome, float64, error) {
	bases, err := e.candidateBases(best, original, recent)
	if err != nil {
		return model.Genome{}, 0, err
	}
	localBest := cloneGenome(best)
	localBestFitness := bestFitness
	for _, base := range bases {
		candidate, err := e.perturbCandidate(ctx, base, perturbationRange, annealingFactor)
		if err != nil {
			return model.Genome{}, 0, err
		}
		candidateFitness, err := fitness(ctx, candidate)
		if err != nil {
			return model.Genome{}, 0, err
		}
		report.CandidateEvaluations++
		if scalarFitnessDominates(candidateFitness, localBestFitness, e.MinImprovement) {
			report.AcceptedCandidates++
			localBest = candidate
			localBestFitness = candidateFitness
		} else {
			report.RejectedCandidates++
		}
	}
	return localBest, localBestFitness, nil
}

func (e *Exoself) randIntn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Rand.Intn(n)
}

func (e *Exoself) randFloat64() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Rand.Float64()
}

func cloneGenome(g model.Genome) model.Genome {
	out := g
	out.Neurons = append([]model.Neuron(nil), g.Neurons...)
	out.Synapses = append([]model.Synapse(nil), g.Synapses...)
	out.SensorIDs = append([]string(nil), g.SensorIDs...)
	out.ActuatorIDs = append([]string(nil), g.ActuatorIDs...)
	if g.ActuatorTunables != nil {
		out.ActuatorTunables = make(map[string]float64, len(g.ActuatorTunables))
		for k, v := range g.ActuatorTunables {
			out.ActuatorTunables[k] = v
		}
	}
	if g.ActuatorGenerations != nil {
		out.ActuatorGenerations = make(map[string]int, len(g.ActuatorGenerations))
		for k, v := range g.ActuatorGenerations {
			out.ActuatorGenerations[k] = v
		}
	}
	out.SensorNeuronLinks = append([]model.SensorNeuronLink(nil), g.SensorNeuronLinks...)
	out.NeuronActuatorLinks = append([]model.NeuronActuatorLink(nil), g.NeuronActuatorLinks...)
	if g.Substrate != nil {
		sub := *g.Substrate
		sub.CPPIDs = append([]string(nil), g.Substrate.CPPIDs...)
		sub.CEPIDs = append([]string(nil), g.Substrate.CEPIDs...)
		sub.Dimensions = append([]int(nil), g.Substrate.Dimensions...)
		if g.Substrate.Parameters != nil {
			sub.Parameters = make(map[string]float64, len(g.Substrate.Parameters))
			for k, v := range g.Substrate.Parameters {
				sub.Parameters[k] = v
			}
		}
		out.Substrate = &sub
	}
	if g.Plasticity != nil {
		p := *g.Plasticity
		out.Plasticity = &p
	}
	if g.Strategy != nil {
		s := *g.Strategy
		out.Strategy = &s
	}
	return out
}

func scalarFitnessDominates(candidate, incumbent, minImprovement float64) bool {
	if candidate <= incumbent {
		return false
	}
	threshold := incumbent + incumbent*minImprovement
	return candidate > threshold
}
