package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"bardo/internal/genotype"
	protoio "bardo/internal/io"
	"bardo/internal/model"
	"bardo/internal/nn"
	"bardo/internal/substrate"
)

// CortexStatus tracks where an agent sits in its activation lifecycle:
// active agents run the sense/propagate/act cycle, inactive ones have
// finished an episode but can still be reset, and terminated ones are
// gone for good.
type CortexStatus string

const (
	CortexStatusActive     CortexStatus = "active"
	CortexStatusInactive   CortexStatus = "inactive"
	CortexStatusTerminated CortexStatus = "terminated"
)

var (
	ErrCortexInactive   = errors.New("cortex is inactive")
	ErrCortexTerminated = errors.New("cortex is terminated")
	ErrNoWeightBackup   = errors.New("no cortex weight backup available")
	ErrNoSynapses       = errors.New("no synapses available for perturbation")
)

// synapseWeightCeiling bounds weight perturbation so a run of bad luck
// during tuning can't push a single synapse to an unrecoverable extreme.
const synapseWeightCeiling = math.Pi * 10

// EvaluationReport summarizes one RunUntilEvaluationComplete call: how
// many cycles it took, the accumulated fitness vector, and why it ended.
type EvaluationReport struct {
	Fitness      []float64
	Cycles       int
	EndFlagTotal int
	GoalReached  bool
	Completed    bool
	Duration     time.Duration
}

// ActuatorSyncFeedback is what an ActuatorSyncReporter hands back after
// consuming a cycle's worth of actuator output.
type ActuatorSyncFeedback struct {
	Fitness     []float64
	EndFlag     int
	GoalReached bool
}

// ActuatorSyncReporter is an optional capability an actuator can implement
// so a cortex's episode loop can pull per-cycle fitness and termination
// signals back out without the scape pushing them through a side channel.
type ActuatorSyncReporter interface {
	ConsumeSyncFeedback() (ActuatorSyncFeedback, bool)
}

// Cortex is the runtime seat of a single agent: it owns the genome driving
// the phenotype, the sensor/actuator bindings feeding it, and the forward
// state carried cycle to cycle. One Cortex corresponds to one live agent.
type Cortex struct {
	id     string
	active model.Genome

	sensorByID   map[string]protoio.Sensor
	actuatorByID map[string]protoio.Actuator

	inputOrder  []string
	outputOrder []string

	body  substrate.Runtime
	net   *nn.ForwardState
	mu    sync.Mutex
	state CortexStatus
	saved *model.Genome
}

// NewCortex wires a genome to its sensor/actuator bindings and brings the
// resulting cortex up in the active state.
func NewCortex(
	id string,
	genome model.Genome,
	sensors map[string]protoio.Sensor,
	actuators map[string]protoio.Actuator,
	inputNeuronIDs []string,
	outputNeuronIDs []string,
	substrateRuntime substrate.Runtime,
) (*Cortex, error) {
	switch {
	case id == "":
		return nil, fmt.Errorf("agent id is required")
	case len(inputNeuronIDs) == 0:
		return nil, fmt.Errorf("input neuron ids are required")
	case len(outputNeuronIDs) == 0:
		return nil, fmt.Errorf("output neuron ids are required")
	}

	return &Cortex{
		id:           id,
		active:       genome,
		sensorByID:   sensors,
		actuatorByID: actuators,
		inputOrder:   append([]string(nil), inputNeuronIDs...),
		outputOrder:  append([]string(nil), outputNeuronIDs...),
		body:         substrateRuntime,
		net:          nn.NewForwardState(),
		state:        CortexStatusActive,
	}, nil
}

func (c *Cortex) ID() string { return c.id }

// RegisteredSensor looks up a sensor binding by its exact registered id.
func (c *Cortex) RegisteredSensor(id string) (protoio.Sensor, bool) {
	if c.sensorByID == nil {
		return nil, false
	}
	s, ok := c.sensorByID[id]
	return s, ok
}

// RegisteredActuator resolves an actuator binding, falling back to a
// canonical-name match so differently-cased or aliased ids still find
// the same underlying actuator.
func (c *Cortex) RegisteredActuator(id string) (protoio.Actuator, bool) {
	if c.actuatorByID == nil {
		return nil, false
	}
	if a, ok := c.actuatorByID[id]; ok {
		return a, true
	}

	canonical := protoio.CanonicalActuatorName(id)
	if canonical == "" {
		return nil, false
	}
	if a, ok := c.actuatorByID[canonical]; ok {
		return a, true
	}
	for registeredID, a := range c.actuatorByID {
		if protoio.CanonicalActuatorName(registeredID) == canonical {
			return a, true
		}
	}
	return nil, false
}

func (c *Cortex) Status() CortexStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Reactivate brings a cortex back to CortexStatusActive after an episode
// finished, resetting forward state and any stateful substrate memory.
// A terminated cortex can never be reactivated.
func (c *Cortex) Reactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CortexStatusTerminated {
		return ErrCortexTerminated
	}
	c.net = nn.NewForwardState()
	if stateful, ok := c.body.(substrate.StatefulRuntime); ok {
		stateful.Reset()
	}
	c.state = CortexStatusActive
	return nil
}

func (c *Cortex) Terminate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stateful, ok := c.body.(substrate.TerminableRuntime); ok {
		stateful.Terminate()
	}
	c.state = CortexStatusTerminated
}

// BackupWeights snapshots the current genome (and any stateful substrate
// memory) so a subsequent tuning attempt can be rolled back cheaply.
func (c *Cortex) BackupWeights() {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := genotype.CloneGenome(c.active)
	c.saved = &snapshot
	if stateful, ok := c.body.(substrate.StatefulRuntime); ok {
		stateful.Backup()
	}
}

func (c *Cortex) SnapshotGenome() model.Genome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return genotype.CloneGenome(c.active)
}

// ApplyGenome swaps in a new genome and resets forward state; it refuses
// to do so once the cortex has been terminated.
func (c *Cortex) ApplyGenome(genome model.Genome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == CortexStatusTerminated {
		return ErrCortexTerminated
	}
	c.active = genotype.CloneGenome(genome)
	c.net = nn.NewForwardState()
	return nil
}

// RestoreWeights rolls the genome back to the last BackupWeights snapshot.
func (c *Cortex) RestoreWeights() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saved == nil {
		return ErrNoWeightBackup
	}
	if stateful, ok := c.body.(substrate.StatefulRuntime); ok {
		if err := stateful.Restore(); err != nil {
			return err
		}
	}
	c.active = genotype.CloneGenome(*c.saved)
	c.net = nn.NewForwardState()
	return nil
}

func (c *Cortex) ClearWeightBackup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = nil
}

// PerturbWeights nudges a random subset of enabled synapses by up to
// +/-spread, matching a mutate-power of 1/sqrt(n) so perturbation scope
// shrinks as the network grows. At least one synapse always changes.
func (c *Cortex) PerturbWeights(rng *rand.Rand, spread float64) error {
	if rng == nil {
		return fmt.Errorf("random source is required")
	}
	if spread <= 0 {
		return fmt.Errorf("spread must be > 0")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	enabled := enabledSynapseIndices(c.active.Synapses)
	if len(enabled) == 0 {
		return ErrNoSynapses
	}

	mutatePower := 1 / math.Sqrt(float64(len(enabled)))
	touched := 0
	for _, idx := range enabled {
		if rng.Float64() >= mutatePower {
			continue
		}
		c.nudgeSynapse(idx, rng, spread)
		touched++
	}
	if touched == 0 {
		c.nudgeSynapse(enabled[rng.Intn(len(enabled))], rng, spread)
	}
	return nil
}

func (c *Cortex) nudgeSynapse(idx int, rng *rand.Rand, spread float64) {
	delta := (rng.Float64()*2 - 1) * spread
	c.active.Synapses[idx].Weight = saturateWeight(c.active.Synapses[idx].Weight + delta)
}

func enabledSynapseIndices(synapses []model.Synapse) []int {
	if len(synapses) == 0 {
		return nil
	}
	out := make([]int, 0, len(synapses))
	for i := range synapses {
		if synapses[i].Enabled {
			out = append(out, i)
		}
	}
	return out
}

// Tick reads every registered sensor, routes their values onto input
// neurons, and runs one forward pass. This is the normal per-cycle entry
// point used by scape-driven episode loops.
func (c *Cortex) Tick(ctx context.Context) ([]float64, error) {
	inputs, err := c.gatherSensorInputs(ctx)
	if err != nil {
		return nil, err
	}
	return c.step(ctx, inputs)
}

// RunStep bypasses sensor reads and feeds a caller-supplied input vector
// straight to the input neurons, in declared order.
func (c *Cortex) RunStep(ctx context.Context, inputs []float64) ([]float64, error) {
	if err := c.ensureExecutable(ctx); err != nil {
		return nil, err
	}
	byNeuron := make(map[string]float64, len(c.inputOrder))
	n := len(inputs)
	if n > len(c.inputOrder) {
		n = len(c.inputOrder)
	}
	for i := 0; i < n; i++ {
		byNeuron[c.inputOrder[i]] += inputs[i]
	}
	return c.step(ctx, byNeuron)
}

// RunUntilEvaluationComplete ticks the cortex until an actuator reports
// an end-of-episode condition (goal reached or positive end flag) or
// maxCycles is exhausted, accumulating fitness across cycles.
func (c *Cortex) RunUntilEvaluationComplete(ctx context.Context, maxCycles int) (EvaluationReport, error) {
	var report EvaluationReport
	if maxCycles <= 0 {
		return report, fmt.Errorf("max cycles must be > 0")
	}
	switch c.Status() {
	case CortexStatusTerminated:
		return report, ErrCortexTerminated
	case CortexStatusInactive:
		return report, ErrCortexInactive
	}

	started := time.Now()
	for cycle := 0; cycle < maxCycles; cycle++ {
		if _, err := c.Tick(ctx); err != nil {
			return report, err
		}
		report.Cycles++

		fitness, endFlag, goalReached := c.consumeActuatorSyncFeedback()
		report.Fitness = addFitnessVectors(report.Fitness, fitness)
		report.EndFlagTotal += endFlag
		if goalReached {
			report.GoalReached = true
		}
		if report.EndFlagTotal > 0 || report.GoalReached {
			report.Completed = true
			report.Duration = time.Since(started)
			c.deactivateAfterEpisode()
			return report, nil
		}
	}

	report.Duration = time.Since(started)
	return report, nil
}

func (c *Cortex) deactivateAfterEpisode() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != CortexStatusTerminated {
		c.state = CortexStatusInactive
	}
}

// step runs the core sense->propagate->act pipeline for one cycle: a
// forward pass over the genome's network, an optional plasticity update,
// an optional substrate relay, and actuator dispatch.
func (c *Cortex) step(ctx context.Context, inputByNeuron map[string]float64) ([]float64, error) {
	if err := c.ensureExecutable(ctx); err != nil {
		return nil, err
	}
	if inputByNeuron == nil {
		inputByNeuron = map[string]float64{}
	}

	neuronValues, err := nn.ForwardWithState(c.active, inputByNeuron, c.net)
	if err != nil {
		return nil, err
	}
	if c.active.Plasticity != nil {
		if err := nn.ApplyPlasticity(&c.active, neuronValues, *c.active.Plasticity); err != nil {
			return nil, err
		}
	}

	outputs := make([]float64, len(c.outputOrder))
	for i, neuronID := range c.outputOrder {
		outputs[i] = neuronValues[neuronID]
	}

	outputs, err = c.relayThroughSubstrate(ctx, neuronValues, outputs)
	if err != nil {
		return nil, err
	}
	if err := c.dispatchActuators(ctx, neuronValues, outputs); err != nil {
		return nil, err
	}
	return outputs, nil
}

// relayThroughSubstrate gives an attached substrate a chance to transform
// the raw network outputs before they reach actuators, passing fan-in
// neuron values through when the substrate supports that capability.
func (c *Cortex) relayThroughSubstrate(ctx context.Context, neuronValues map[string]float64, outputs []float64) ([]float64, error) {
	if c.body == nil {
		return outputs, nil
	}

	var (
		relayed []float64
		err     error
	)
	if faninBody, ok := c.body.(substrate.FaninRuntime); ok {
		faninSignals := make(map[string]float64, len(c.outputOrder))
		for _, neuronID := range c.outputOrder {
			faninSignals[neuronID] = neuronValues[neuronID]
		}
		relayed, err = faninBody.StepWithFanin(ctx, outputs, faninSignals)
	} else {
		relayed, err = c.body.Step(ctx, outputs)
	}
	if err != nil {
		return nil, err
	}
	if len(relayed) >= len(outputs) {
		copy(outputs, relayed[:len(outputs)])
	}
	return outputs, nil
}

func (c *Cortex) ensureExecutable(ctx context.Context) error {
	switch c.Status() {
	case CortexStatusTerminated:
		return ErrCortexTerminated
	case CortexStatusInactive:
		return ErrCortexInactive
	}
	return ctx.Err()
}

// gatherSensorInputs reads every sensor named in the genome and routes
// each sensor's values onto its linked input neurons. A sensor with no
// explicit link spills its values onto unclaimed input neurons in
// declaration order; a sensor whose value count exceeds its link count
// pushes the overflow onto its last linked neuron.
func (c *Cortex) gatherSensorInputs(ctx context.Context) (map[string]float64, error) {
	byNeuron := make(map[string]float64, len(c.inputOrder))
	neuronsBySensor := groupNeuronsBySensor(c.active.SensorNeuronLinks)

	nextFallback := 0
	for _, sensorID := range c.active.SensorIDs {
		sensor, ok := c.sensorByID[sensorID]
		if !ok {
			return nil, fmt.Errorf("sensor not registered: %s", sensorID)
		}
		values, err := sensor.Read(ctx)
		if err != nil {
			return nil, err
		}
		if len(values) == 0 {
			continue
		}

		targets := neuronsBySensor[sensorID]
		switch {
		case len(targets) == 0:
			for _, v := range values {
				if nextFallback >= len(c.inputOrder) {
					break
				}
				byNeuron[c.inputOrder[nextFallback]] += v
				nextFallback++
			}
		case len(values) == 1:
			for _, neuronID := range targets {
				byNeuron[neuronID] += values[0]
			}
		default:
			overflowTarget := targets[len(targets)-1]
			for i, v := range values {
				target := overflowTarget
				if i < len(targets) {
					target = targets[i]
				}
				byNeuron[target] += v
			}
		}
	}
	return byNeuron, nil
}

func groupNeuronsBySensor(links []model.SensorNeuronLink) map[string][]string {
	grouped := make(map[string][]string, len(links))
	for _, link := range links {
		sensorID := strings.TrimSpace(link.SensorID)
		neuronID := strings.TrimSpace(link.NeuronID)
		if sensorID == "" || neuronID == "" {
			continue
		}
		grouped[sensorID] = append(grouped[sensorID], neuronID)
	}
	return grouped
}

// dispatchActuators routes network outputs to every actuator named in the
// genome. Actuators with explicit neuron links receive exactly those
// neurons' values; unlinked actuators split the flat output vector into
// equal contiguous chunks (or fall back to a best-effort slice when the
// output count doesn't divide evenly).
func (c *Cortex) dispatchActuators(ctx context.Context, neuronValues map[string]float64, outputs []float64) error {
	if len(c.active.ActuatorIDs) == 0 {
		return nil
	}

	neuronsByActuator := groupNeuronsByActuator(c.active.NeuronActuatorLinks)
	linkRouted := len(neuronsByActuator) > 0

	var chunks [][]float64
	if !linkRouted {
		var err error
		chunks, err = splitOutputsForActuators(outputs, len(c.active.ActuatorIDs))
		if err != nil {
			return err
		}
	}

	for i, actuatorID := range c.active.ActuatorIDs {
		actuator, ok := c.actuatorByID[actuatorID]
		if !ok {
			return fmt.Errorf("actuator not registered: %s", actuatorID)
		}

		chunk, err := c.resolveActuatorChunk(actuatorID, i, linkRouted, neuronsByActuator, neuronValues, outputs, chunks)
		if err != nil {
			return err
		}
		if c.active.ActuatorTunables != nil {
			if offset, ok := c.active.ActuatorTunables[actuatorID]; ok && offset != 0 {
				chunk = applyActuatorOffset(chunk, offset)
			}
		}
		if err := actuator.Write(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cortex) resolveActuatorChunk(
	actuatorID string,
	index int,
	linkRouted bool,
	neuronsByActuator map[string][]string,
	neuronValues map[string]float64,
	outputs []float64,
	chunks [][]float64,
) ([]float64, error) {
	if !linkRouted {
		return chunks[index], nil
	}
	linked := neuronsByActuator[actuatorID]
	if len(linked) == 0 {
		return fallbackActuatorChunk(outputs, len(c.active.ActuatorIDs), index)
	}
	chunk := make([]float64, len(linked))
	for i, neuronID := range linked {
		chunk[i] = neuronValues[neuronID]
	}
	return chunk, nil
}

func groupNeuronsByActuator(links []model.NeuronActuatorLink) map[string][]string {
	grouped := make(map[string][]string, len(links))
	for _, link := range links {
		actuatorID := strings.TrimSpace(link.ActuatorID)
		neuronID := strings.TrimSpace(link.NeuronID)
		if actuatorID == "" || neuronID == "" {
			continue
		}
		grouped[actuatorID] = append(grouped[actuatorID], neuronID)
	}
	return grouped
}

func fallbackActuatorChunk(outputs []float64, actuatorCount, actuatorIndex int) ([]float64, error) {
	if actuatorCount <= 0 {
		return nil, fmt.Errorf("actuator count must be > 0")
	}
	if actuatorIndex < 0 || actuatorIndex >= actuatorCount {
		return nil, fmt.Errorf("actuator index out of range: %d", actuatorIndex)
	}
	if len(outputs) == 0 {
		return nil, nil
	}
	if actuatorCount == 1 {
		return append([]float64(nil), outputs...), nil
	}
	if len(outputs)%actuatorCount == 0 {
		chunkSize := len(outputs) / actuatorCount
		start := actuatorIndex * chunkSize
		return append([]float64(nil), outputs[start:start+chunkSize]...), nil
	}
	if actuatorIndex < len(outputs) {
		return []float64{outputs[actuatorIndex]}, nil
	}
	return []float64{outputs[len(outputs)-1]}, nil
}

func splitOutputsForActuators(outputs []float64, actuatorCount int) ([][]float64, error) {
	if actuatorCount <= 0 {
		return nil, fmt.Errorf("actuator count must be > 0")
	}
	// A lone actuator gets the entire output vector; N actuators split it
	// into equal contiguous slices.
	if actuatorCount == 1 {
		return [][]float64{append([]float64(nil), outputs...)}, nil
	}
	if len(outputs)%actuatorCount != 0 {
		return nil, fmt.Errorf("actuator/output shape mismatch: outputs=%d actuators=%d", len(outputs), actuatorCount)
	}
	chunkSize := len(outputs) / actuatorCount
	if chunkSize <= 0 {
		return nil, fmt.Errorf("actuator/output shape mismatch: outputs=%d actuators=%d", len(outputs), actuatorCount)
	}
	chunks := make([][]float64, actuatorCount)
	for i := range chunks {
		start := i * chunkSize
		chunks[i] = append([]float64(nil), outputs[start:start+chunkSize]...)
	}
	return chunks, nil
}

func applyActuatorOffset(values []float64, offset float64) []float64 {
	if offset == 0 {
		return values
	}
	out := append([]float64(nil), values...)
	for i := range out {
		out[i] += offset
	}
	return out
}

func saturateWeight(weight float64) float64 {
	switch {
	case weight > synapseWeightCeiling:
		return synapseWeightCeiling
	case weight < -synapseWeightCeiling:
		return -synapseWeightCeiling
	default:
		return weight
	}
}

// addFitnessVectors accumulates values into acc element-wise, growing acc
// if values is longer.
func addFitnessVectors(acc, values []float64) []float64 {
	if len(values) == 0 {
		return acc
	}
	if len(acc) == 0 {
		return append([]float64(nil), values...)
	}
	out := append([]float64(nil), acc...)
	if len(values) > len(out) {
		out = append(out, make([]float64, len(values)-len(out))...)
	}
	for i, v := range values {
		out[i] += v
	}
	return out
}

// consumeActuatorSyncFeedback polls every actuator implementing
// ActuatorSyncReporter and folds their per-cycle feedback into a single
// fitness vector, end-flag total, and goal-reached flag.
func (c *Cortex) consumeActuatorSyncFeedback() ([]float64, int, bool) {
	var (
		fitness     []float64
		endFlag     int
		goalReached bool
	)
	for _, actuatorID := range c.active.ActuatorIDs {
		actuator, ok := c.actuatorByID[actuatorID]
		if !ok {
			continue
		}
		reporter, ok := actuator.(ActuatorSyncReporter)
		if !ok {
			continue
		}
		feedback, ok := reporter.ConsumeSyncFeedback()
		if !ok {
			continue
		}
		fitness = addFitnessVectors(fitness, feedback.Fitness)
		if feedback.EndFlag > 0 {
			endFlag += feedback.EndFlag
		}
		if feedback.GoalReached {
			goalReached = true
			if feedback.EndFlag <= 0 {
				endFlag++
			}
		}
	}
	return fitness, endFlag, goalReached
}
