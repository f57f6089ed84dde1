package genotype

import (
	"context"
	"fmt"
	"math/rand"

	"bardo/internal/storage"
)

// CreateTest (re)constructs a fixed-ID "test" agent against store,
// discarding whatever genome previously lived under that ID first.
func CreateTest(
	ctx context.Context,
	store storage.Store,
	constraint ConstructConstraint,
	rng *rand.Rand,
) (ConstructedAgent, error) {
	if store == nil {
		return ConstructedAgent{}, fmt.Errorf("store is required")
	}
	if err := discardGenome(ctx, store, "test"); err != nil {
		return ConstructedAgent{}, err
	}

	agent, err := ConstructAgent("test", "test", normalizedConstraint(constraint), rng)
	if err != nil {
		return ConstructedAgent{}, err
	}
	if err := store.SaveGenome(ctx, agent.Genome); err != nil {
		return ConstructedAgent{}, err
	}
	return agent, nil
}

// RunTest exercises the full construct/clone/delete lifecycle against
// store: build a "test" agent, save it, remap-clone it under "test_clone",
// save that too, then delete both, leaving the store as it found it.
func RunTest(
	ctx context.Context,
	store storage.Store,
	constraint ConstructConstraint,
	rng *rand.Rand,
) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	base, err := ConstructAgent("test", "test", normalizedConstraint(constraint), rng)
	if err != nil {
		return err
	}
	if err := store.SaveGenome(ctx, base.Genome); err != nil {
		return err
	}

	ioNeuronIDs := append(append([]string(nil), base.InputNeuronIDs...), base.OutputNeuronIDs...)
	clone := CloneAgentWithRemappedIDs(base.Genome, "test_clone", ioNeuronIDs)
	if err := store.SaveGenome(ctx, clone); err != nil {
		return err
	}

	if err := DeleteAgent(ctx, store, "test"); err != nil {
		return err
	}
	return DeleteAgent(ctx, store, "test_clone")
}

func normalizedConstraint(constraint ConstructConstraint) ConstructConstraint {
	if constraint.Morphology == "" {
		return DefaultConstructConstraint()
	}
	return constraint
}

func discardGenome(ctx context.Context, store storage.Store, id string) error {
	_, exists, err := store.GetGenome(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return DeleteAgent(ctx, store, id)
}
