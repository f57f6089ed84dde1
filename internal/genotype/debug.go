package genotype

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bardo/internal/model"
	"bardo/internal/storage"
)

// FormatGenome renders a verbose, human-readable multiline dump of genome:
// sensors, actuators, every neuron and synapse, link records, and (when
// present) substrate configuration.
func FormatGenome(genome model.Genome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "genome: %s\n", genome.ID)
	fmt.Fprintf(&b, "sensors: %v\n", sortUnique(genome.SensorIDs))
	fmt.Fprintf(&b, "actuators: %v\n", sortUnique(genome.ActuatorIDs))

	fmt.Fprintf(&b, "neurons: %d\n", len(genome.Neurons))
	for _, neuron := range byNeuronID(genome.Neurons) {
		aggregator := neuron.Aggregator
		if aggregator == "" {
			aggregator = "dot_product"
		}
		fmt.Fprintf(&b, "  neuron %s act=%s aggr=%s bias=%g\n", neuron.ID, neuron.Activation, aggregator, neuron.Bias)
	}

	fmt.Fprintf(&b, "synapses: %d\n", len(genome.Synapses))
	for _, synapse := range byConnection(genome.Synapses) {
		fmt.Fprintf(&b, "  synapse %s %s->%s w=%g enabled=%t recurrent=%t\n", synapse.ID, synapse.From, synapse.To, synapse.Weight, synapse.Enabled, synapse.Recurrent)
	}

	if len(genome.SensorNeuronLinks) > 0 {
		fmt.Fprintf(&b, "sensor_links: %d\n", len(genome.SensorNeuronLinks))
		for _, link := range bySensorThenNeuron(genome.SensorNeuronLinks) {
			fmt.Fprintf(&b, "  %s->%s\n", link.SensorID, link.NeuronID)
		}
	}
	if len(genome.NeuronActuatorLinks) > 0 {
		fmt.Fprintf(&b, "actuator_links: %d\n", len(genome.NeuronActuatorLinks))
		for _, link := range byActuatorThenNeuron(genome.NeuronActuatorLinks) {
			fmt.Fprintf(&b, "  %s->%s\n", link.NeuronID, link.ActuatorID)
		}
	}

	if genome.Substrate != nil {
		writeSubstrateSummary(&b, genome.Substrate)
	}
	return b.String()
}

func writeSubstrateSummary(b *strings.Builder, substrate *model.SubstrateConfig) {
	fmt.Fprintf(b, "substrate: cpp=%s cep=%s weight_count=%d dimensions=%v\n",
		substrate.CPPName, substrate.CEPName, substrate.WeightCount, substrate.Dimensions)
	if len(substrate.CPPIDs) > 0 {
		fmt.Fprintf(b, "  substrate_cpp_ids: %v\n", sortUnique(substrate.CPPIDs))
	}
	if len(substrate.CEPIDs) > 0 {
		fmt.Fprintf(b, "  substrate_cep_ids: %v\n", sortUnique(substrate.CEPIDs))
	}
	if len(substrate.Parameters) > 0 {
		fmt.Fprintf(b, "  substrate_parameters: %s\n", formatSortedFloatMap(substrate.Parameters))
	}
}

// FormatGenomeListForm renders genome as a compact adjacency list: one line
// per sensor, one per neuron (its linked sensors as "id#", then its weighted
// incoming synapses as "id# weight"), and one per actuator (with its fan-in
// neurons).
func FormatGenomeListForm(genome model.Genome) string {
	var b strings.Builder

	for _, sensorID := range sortUnique(genome.SensorIDs) {
		fmt.Fprintf(&b, "%s:\n", sensorID)
	}

	for _, neuronID := range neuronIDsSortedUnique(genome.Neurons) {
		fmt.Fprintf(&b, "%s:", neuronID)
		for _, link := range bySensorThenNeuron(genome.SensorNeuronLinks) {
			if link.NeuronID == neuronID {
				fmt.Fprintf(&b, " %s#", link.SensorID)
			}
		}
		for _, synapse := range incomingSynapses(genome.Synapses, neuronID) {
			fmt.Fprintf(&b, " %s# %g", synapse.From, synapse.Weight)
		}
		b.WriteString("\n")
	}

	for _, actuatorID := range sortUnique(genome.ActuatorIDs) {
		fmt.Fprintf(&b, "%s:", actuatorID)
		for _, neuronID := range actuatorFaninNeurons(genome.NeuronActuatorLinks, actuatorID) {
			fmt.Fprintf(&b, " %s", neuronID)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// WriteGenomeListForm writes FormatGenomeListForm's output to path.
func WriteGenomeListForm(path string, genome model.Genome) error {
	return os.WriteFile(path, []byte(FormatGenomeListForm(genome)), 0o644)
}

// WriteGenomeListFormDefault writes list-form output to "<genome_id>.agent"
// under dir (the current working directory when dir is empty) and returns
// the path written.
func WriteGenomeListFormDefault(genome model.Genome, dir string) (string, error) {
	if genome.ID == "" {
		return "", fmt.Errorf("genome id is required")
	}
	path := genome.ID + ".agent"
	if dir != "" {
		path = filepath.Join(dir, path)
	}
	return path, WriteGenomeListForm(path, genome)
}

// Print loads genomeID from store and returns FormatGenome's verbose dump.
func Print(ctx context.Context, store storage.Store, genomeID string) (string, error) {
	genome, err := loadGenomeByID(ctx, store, genomeID)
	if err != nil {
		return "", err
	}
	return FormatGenome(genome), nil
}

// PrintListForm loads genomeID from store and returns FormatGenomeListForm's
// compact dump.
func PrintListForm(ctx context.Context, store storage.Store, genomeID string) (string, error) {
	genome, err := loadGenomeByID(ctx, store, genomeID)
	if err != nil {
		return "", err
	}
	return FormatGenomeListForm(genome), nil
}

// WriteListFormForGenomeID loads genomeID from store and writes its list-form
// dump to "<id>.agent" under dir.
func WriteListFormForGenomeID(ctx context.Context, store storage.Store, genomeID, dir string) (string, error) {
	genome, err := loadGenomeByID(ctx, store, genomeID)
	if err != nil {
		return "", err
	}
	return WriteGenomeListFormDefault(genome, dir)
}

func loadGenomeByID(ctx context.Context, store storage.Store, genomeID string) (model.Genome, error) {
	if store == nil {
		return model.Genome{}, fmt.Errorf("store is required")
	}
	if genomeID == "" {
		return model.Genome{}, fmt.Errorf("genome id is required")
	}

	record, ok, err := Read(ctx, store, RecordKey{Table: RecordTableGenome, ID: genomeID})
	if err != nil {
		return model.Genome{}, err
	}
	if !ok {
		return model.Genome{}, fmt.Errorf("genome not found: %s", genomeID)
	}
	genome, ok := record.(model.Genome)
	if !ok {
		return model.Genome{}, fmt.Errorf("unexpected genome record type: %T", record)
	}
	return genome, nil
}
