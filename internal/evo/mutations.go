package evo

import (
	"errors"

	"bardo/internal/model"
)

// Errors returned by mutation operators when a genome lacks the structure a
// mutation needs (no synapses to perturb, no neurons to retarget, and so on).
var (
	ErrNoSynapses       = errors.New("genome has no synapses")
	ErrNoNeurons        = errors.New("genome has no neurons")
	ErrSynapseExists    = errors.New("synapse already exists")
	ErrSynapseNotFound  = errors.New("synapse not found")
	ErrNeuronExists     = errors.New("neuron already exists")
	ErrNeuronNotFound   = errors.New("neuron not found")
	ErrInvalidEndpoint  = errors.New("invalid synapse endpoint")
	ErrNoMutationChoice = errors.New("no mutation choice available")
)

// ContextualOperator can declare whether it is applicable to a genome under a
// specific scape context. PopulationMonitor uses this to avoid selecting
// incompatible operators.
type ContextualOperator interface {
	Operator
	Applicable(genome model.Genome, scapeName string) bool
}
