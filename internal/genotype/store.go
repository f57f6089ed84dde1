package genotype

import (
	"context"
	"fmt"

	"bardo/internal/model"
	"bardo/internal/storage"
)

// SavePopulationSnapshot persists every genome in a population and then
// writes the population record that indexes them. Genomes are saved
// first so a population record never points at an id the store doesn't
// yet have.
func SavePopulationSnapshot(ctx context.Context, store storage.Store, populationID string, generation int, genomes []model.Genome) error {
	if err := validateSnapshotArgs(store, populationID); err != nil {
		return err
	}

	memberIDs := make([]string, 0, len(genomes))
	for _, genome := range genomes {
		if err := store.SaveGenome(ctx, genome); err != nil {
			return fmt.Errorf("save genome %s: %w", genome.ID, err)
		}
		memberIDs = append(memberIDs, genome.ID)
	}

	population := model.Population{
		VersionedRecord: model.VersionedRecord{
			SchemaVersion: storage.CurrentSchemaVersion,
			CodecVersion:  storage.CurrentCodecVersion,
		},
		ID:         populationID,
		AgentIDs:   memberIDs,
		Generation: generation,
	}
	return store.SavePopulation(ctx, population)
}

func validateSnapshotArgs(store storage.Store, populationID string) error {
	if store == nil {
		return fmt.Errorf("store is required")
	}
	if populationID == "" {
		return fmt.Errorf("population id is required")
	}
	return nil
}
