package model

// GenerationDiagnostics is the per-generation scoreboard a population
// controller emits: fitness spread, species counts, and a rollup of how
// the tuning phase spent its evaluation budget.
type GenerationDiagnostics struct {
	Generation           int     `json:"generation"`
	BestFitness          float64 `json:"best_fitness"`
	MeanFitness          float64 `json:"mean_fitness"`
	MinFitness           float64 `json:"min_fitness"`
	SpeciesCount         int     `json:"species_count"`
	FingerprintDiversity int     `json:"fingerprint_diversity"`
	SpeciationThreshold  float64 `json:"speciation_threshold"`
	TargetSpeciesCount   int     `json:"target_species_count"`
	MeanSpeciesSize      float64 `json:"mean_species_size"`
	LargestSpeciesSize   int     `json:"largest_species_size"`

	TuningInvocations     int     `json:"tuning_invocations"`
	TuningAttempts        int     `json:"tuning_attempts"`
	TuningEvaluations     int     `json:"tuning_evaluations"`
	TuningAccepted        int     `json:"tuning_accepted"`
	TuningRejected        int     `json:"tuning_rejected"`
	TuningGoalHits        int     `json:"tuning_goal_hits"`
	TuningAcceptRate      float64 `json:"tuning_accept_rate"`
	TuningEvalsPerAttempt float64 `json:"tuning_evals_per_attempt"`
}

// SpeciesGeneration is the speciation view of a single generation: which
// species exist, which appeared, and which died out.
type SpeciesGeneration struct {
	Generation     int              `json:"generation"`
	Species        []SpeciesMetrics `json:"species"`
	NewSpecies     []string         `json:"new_species,omitempty"`
	ExtinctSpecies []string         `json:"extinct_species,omitempty"`
}

// SpeciesMetrics summarizes one species within a generation.
type SpeciesMetrics struct {
	Key         string  `json:"key"`
	Size        int     `json:"size"`
	MeanFitness float64 `json:"mean_fitness"`
	BestFitness float64 `json:"best_fitness"`
}

// TopGenomeRecord pairs a hall-of-fame rank with the genome that earned it.
type TopGenomeRecord struct {
	Rank    int     `json:"rank"`
	Fitness float64 `json:"fitness"`
	Genome  Genome  `json:"genome"`
}

// ScapeSummary is a scape's self-reported identity and best observed
// fitness, used by CLI diagnostics output.
type ScapeSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	BestFitness float64 `json:"best_fitness"`
}
