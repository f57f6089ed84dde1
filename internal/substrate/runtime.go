package substrate

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoSubstrateBackup          = errors.New("no substrate backup available")
	ErrSubstrateRuntimeTerminated = errors.New("substrate runtime terminated")
	ErrMissingCEPActor            = errors.New("missing cep actor")
	ErrMissingSubstrateMailbox    = errors.New("missing substrate mailbox")
	ErrSubstrateMailboxTerminated = errors.New("substrate mailbox terminated")
	ErrMissingCEPFaninRelay       = errors.New("missing cep fan-in relay")
	ErrCEPFaninRelayTerminated    = errors.New("cep fan-in relay terminated")
	ErrUnexpectedCEPCommandSender = errors.New("unexpected cep command sender")
	ErrUnexpectedCEPCommandTarget = errors.New("unexpected cep command target")
)

const (
	runtimeCPPProcessID       = "cpp"
	runtimeCortexProcessID    = "cortex"
	runtimeSubstrateProcessID = "substrate"
	runtimeExoSelfProcessID   = "exoself"
)

// SimpleRuntime is the default substrate Runtime: a CPP (coordinate
// pattern producer) feeds a chain of CEPs (connectivity expression
// producers) that evolve each substrate weight independently, with each
// weight's CEPs running as their own actor so fan-in between them can be
// modeled as message passing rather than a shared call stack.
type SimpleRuntime struct {
	cpp  CPP
	ceps []CEP

	// actorsForWeight[w][c] is the actor running ceps[c] for weight w.
	// actorsForWeight0 is a convenience alias to actorsForWeight[0] kept
	// for the common single-CEP, single-weight case.
	actorsForWeight0 []*CEPActor
	actorsForWeight  [][]*CEPActor
	actorInits       []cepActorInit
	faninRelays      [][][]*CEPFaninRelay
	mailboxes        []*substrateCommandMailbox

	processFaninPIDs [][]string
	globalFaninPIDs  []string

	params     map[string]float64
	weights    []float64
	backup     []float64
	terminated bool
}

// NewSimpleRuntime resolves the CPP and CEP chain named by spec and
// allocates one weight-scoped actor pool per substrate weight.
func NewSimpleRuntime(spec Spec, weightCount int) (*SimpleRuntime, error) {
	if weightCount <= 0 {
		return nil, errors.New("weight count must be > 0")
	}
	if spec.CPPName == "" {
		spec.CPPName = DefaultCPPName
	}
	cpp, err := ResolveCPP(spec.CPPName)
	if err != nil {
		return nil, err
	}
	ceps, err := resolveCEPChain(spec)
	if err != nil {
		return nil, err
	}

	params := map[string]float64{}
	for k, v := range spec.Parameters {
		params[k] = v
	}
	faninPIDsByCEP := normalizeCEPFaninPIDsByCEP(spec.CEPFaninPIDsByCEP)
	globalFaninPIDs := resolveGlobalCEPFaninPIDs(spec.CEPFaninPIDs, faninPIDsByCEP)
	actorInits, processFaninPIDs, err := buildCEPActorInits(ceps, params, globalFaninPIDs, faninPIDsByCEP)
	if err != nil {
		return nil, err
	}
	actorPool, err := buildCEPActorPool(actorInits, weightCount)
	if err != nil {
		return nil, err
	}
	faninRelays := buildCEPFaninRelayPool(actorPool, processFaninPIDs)
	mailboxes := buildSubstrateCommandMailboxPool(actorInits, weightCount)

	var weight0Actors []*CEPActor
	if len(actorPool) > 0 {
		weight0Actors = actorPool[0]
	}
	return &SimpleRuntime{
		cpp:              cpp,
		ceps:             ceps,
		actorsForWeight0: weight0Actors,
		actorsForWeight:  actorPool,
		actorInits:       cloneCEPActorInits(actorInits),
		faninRelays:      faninRelays,
		mailboxes:        mailboxes,
		processFaninPIDs: processFaninPIDs,
		globalFaninPIDs:  append([]string(nil), globalFaninPIDs...),
		params:           params,
		weights:          make([]float64, weightCount),
	}, nil
}

func (r *SimpleRuntime) Step(ctx context.Context, inputs []float64) ([]float64, error) {
	return r.step(ctx, inputs, nil)
}

func (r *SimpleRuntime) StepWithFanin(ctx context.Context, inputs []float64, faninSignals map[string]float64) ([]float64, error) {
	return r.step(ctx, inputs, faninSignals)
}

// step runs one substrate cycle: the CPP computes a coordinate delta,
// that delta (or fan-in overrides) becomes the control signal fed to each
// weight's CEP chain, and each CEP's resulting command mutates that
// weight in place before the next CEP in the chain sees it.
func (r *SimpleRuntime) step(ctx context.Context, inputs []float64, faninSignals map[string]float64) ([]float64, error) {
	if r.terminated {
		return nil, ErrSubstrateRuntimeTerminated
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	delta, err := r.cpp.Compute(ctx, inputs, r.params)
	if err != nil {
		return nil, fmt.Errorf("cpp %s compute: %w", r.cpp.Name(), err)
	}
	controlSignals, err := r.computeControlSignals(ctx, inputs, delta, faninSignals)
	if err != nil {
		return nil, err
	}
	for weightIdx := range r.weights {
		if err := r.advanceWeight(ctx, weightIdx, delta, controlSignals); err != nil {
			return nil, err
		}
	}
	return r.Weights(), nil
}

func (r *SimpleRuntime) advanceWeight(ctx context.Context, weightIdx int, delta float64, controlSignals []float64) error {
	actors := r.actorsForWeight0
	if weightIdx < len(r.actorsForWeight) && len(r.actorsForWeight[weightIdx]) > 0 {
		actors = r.actorsForWeight[weightIdx]
	}
	expectedInits := scopeCEPActorInitsForWeight(r.actorInits, weightIdx)
	next := r.weights[weightIdx]

	for cepIdx, cep := range r.ceps {
		if cepIdx >= len(actors) {
			updated, err := cep.Apply(ctx, next, delta, r.params)
			if err != nil {
				return fmt.Errorf("cep %s apply: %w", cep.Name(), err)
			}
			next = updated
			continue
		}

		actor := actors[cepIdx]
		if actor == nil {
			return fmt.Errorf("cep %s process actor: %w", cep.Name(), ErrMissingCEPActor)
		}
		var relays []*CEPFaninRelay
		if weightIdx < len(r.faninRelays) && cepIdx < len(r.faninRelays[weightIdx]) {
			relays = r.faninRelays[weightIdx][cepIdx]
		}
		faninPIDs := []string{runtimeCPPProcessID}
		if cepIdx < len(r.processFaninPIDs) && len(r.processFaninPIDs[cepIdx]) > 0 {
			faninPIDs = r.processFaninPIDs[cepIdx]
		}
		processSignals, err := r.resolveProcessSignals(faninPIDs, controlSignals)
		if err != nil {
			return fmt.Errorf("cep %s process signals: %w", cep.Name(), err)
		}
		command, ready, err := r.forwardCEPProcess(actor, relays, faninPIDs, processSignals)
		if err != nil {
			if errors.Is(err, ErrUnsupportedCEPCommand) {
				// Custom CEPs that don't speak the actor command protocol
				// still get a direct Apply call for compatibility.
				updated, applyErr := cep.Apply(ctx, next, delta, r.params)
				if applyErr != nil {
					return fmt.Errorf("cep %s apply: %w", cep.Name(), applyErr)
				}
				next = updated
				continue
			}
			return fmt.Errorf("cep %s process forward: %w", cep.Name(), err)
		}
		if !ready {
			continue
		}
		if cepIdx < len(expectedInits) {
			if err := validateCEPCommandEnvelope(command, expectedInits[cepIdx]); err != nil {
				return fmt.Errorf("cep %s command envelope: %w", cep.Name(), err)
			}
		}
		if err := r.postSubstrateCommand(weightIdx, command); err != nil {
			return fmt.Errorf("cep %s mailbox post: %w", cep.Name(), err)
		}
		updated, err := r.applySubstrateMailbox(weightIdx, next)
		if err != nil {
			return fmt.Errorf("cep %s apply mailbox commands: %w", cep.Name(), err)
		}
		next = updated
	}
	r.weights[weightIdx] = next
	return nil
}

func (r *SimpleRuntime) Terminate() {
	if r.terminated {
		return
	}
	r.terminated = true

	seen := map[*CEPActor]struct{}{}
	terminateActorSet := func(actors []*CEPActor) {
		for _, actor := range actors {
			if actor == nil {
				continue
			}
			if _, already := seen[actor]; already {
				continue
			}
			seen[actor] = struct{}{}
			_ = actor.TerminateFrom(runtimeExoSelfProcessID)
		}
	}

	if len(r.actorsForWeight) > 0 {
		for _, actors := range r.actorsForWeight {
			terminateActorSet(actors)
		}
	} else {
		terminateActorSet(r.actorsForWeight0)
	}
	for _, weightRelays := range r.faninRelays {
		for _, cepRelays := range weightRelays {
			for _, relay := range cepRelays {
				relay.Terminate()
			}
		}
	}
	for _, mailbox := range r.mailboxes {
		if mailbox == nil {
			continue
		}
		mailbox.Terminate()
	}
}

func (r *SimpleRuntime) Weights() []float64 {
	out := make([]float64, len(r.weights))
	copy(out, r.weights)
	return out
}

func (r *SimpleRuntime) Backup() {
	r.backup = r.Weights()
}

func (r *SimpleRuntime) Restore() error {
	if len(r.backup) == 0 {
		return ErrNoSubstrateBackup
	}
	if len(r.weights) != len(r.backup) {
		r.weights = make([]float64, len(r.backup))
	}
	copy(r.weights, r.backup)
	return nil
}

func (r *SimpleRuntime) Reset() {
	for i := range r.weights {
		r.weights[i] = 0
	}
}

// computeControlSignals decides what signal(s) drive this cycle's CEP
// chain: explicit fan-in overrides take priority, then a vector-capable
// CPP's own signal vector, then the raw inputs (only for the set_abcn
// fan-in pattern), falling back to the scalar CPP delta.
func (r *SimpleRuntime) computeControlSignals(ctx context.Context, inputs []float64, scalar float64, faninSignals map[string]float64) ([]float64, error) {
	if signals, ok := r.controlSignalsFromFaninMap(faninSignals); ok {
		return signals, nil
	}

	vectorCPP, ok := r.cpp.(VectorCPP)
	if !ok {
		return r.fallbackControlSignals(inputs, scalar), nil
	}
	signals, err := vectorCPP.ComputeVector(ctx, inputs, r.params)
	if err != nil {
		return nil, fmt.Errorf("cpp %s compute vector: %w", r.cpp.Name(), err)
	}
	if len(signals) == 0 {
		return r.fallbackControlSignals(inputs, scalar), nil
	}
	return append([]float64(nil), signals...), nil
}

func (r *SimpleRuntime) fallbackControlSignals(inputs []float64, scalar float64) []float64 {
	if len(r.globalFaninPIDs) > 1 && len(inputs) == len(r.globalFaninPIDs) && canUseInputFanInSignals(r.ceps) {
		return append([]float64(nil), inputs...)
	}
	return []float64{scalar}
}

func (r *SimpleRuntime) controlSignalsFromFaninMap(faninSignals map[string]float64) ([]float64, bool) {
	if len(faninSignals) == 0 || len(r.globalFaninPIDs) == 0 {
		return nil, false
	}
	signals := make([]float64, 0, len(r.globalFaninPIDs))
	for _, pid := range r.globalFaninPIDs {
		value, ok := faninSignals[pid]
		if !ok {
			return nil, false
		}
		signals = append(signals, value)
	}
	return signals, true
}

func (r *SimpleRuntime) resolveProcessSignals(faninPIDs []string, controlSignals []float64) ([]float64, error) {
	if len(controlSignals) == len(faninPIDs) {
		return append([]float64(nil), controlSignals...), nil
	}
	if len(controlSignals) == 1 && len(faninPIDs) == 1 {
		return []float64{controlSignals[0]}, nil
	}
	if len(controlSignals) != len(r.globalFaninPIDs) {
		return nil, fmt.Errorf("%w: cep fan-in signal mismatch expected=%d got=%d", ErrInvalidCEPOutputWidth, len(r.globalFaninPIDs), len(controlSignals))
	}

	indexByPID := make(map[string]int, len(r.globalFaninPIDs))
	for i, pid := range r.globalFaninPIDs {
		if _, exists := indexByPID[pid]; exists {
			continue
		}
		indexByPID[pid] = i
	}

	out := make([]float64, 0, len(faninPIDs))
	for _, pid := range faninPIDs {
		idx, ok := indexByPID[pid]
		if !ok {
			return nil, fmt.Errorf("%w: missing fan-in signal for %s", ErrInvalidCEPOutputWidth, pid)
		}
		out = append(out, controlSignals[idx])
	}
	return out, nil
}

// forwardCEPProcess posts the resolved control signals into actor (via
// dedicated fan-in relays when present, or directly otherwise), then
// blocks on a sync round-trip before draining its next error/command.
func (r *SimpleRuntime) forwardCEPProcess(actor *CEPActor, relays []*CEPFaninRelay, faninPIDs []string, signals []float64) (CEPCommand, bool, error) {
	if len(signals) != len(faninPIDs) {
		return CEPCommand{}, false, fmt.Errorf("%w: cep fan-in signal mismatch expected=%d got=%d", ErrInvalidCEPOutputWidth, len(faninPIDs), len(signals))
	}
	if actor == nil {
		return CEPCommand{}, false, ErrMissingCEPActor
	}

	if len(relays) > 0 {
		if len(relays) != len(faninPIDs) {
			return CEPCommand{}, false, fmt.Errorf("%w: fan-in relay mismatch expected=%d got=%d", ErrMissingCEPFaninRelay, len(faninPIDs), len(relays))
		}
		for i, signal := range signals {
			relay := relays[i]
			if relay == nil {
				return CEPCommand{}, false, fmt.Errorf("%w: nil fan-in relay at index=%d", ErrMissingCEPFaninRelay, i)
			}
			if err := relay.Post([]float64{signal}); err != nil {
				return CEPCommand{}, false, err
			}
		}
	} else {
		for i, signal := range signals {
			message := CEPForwardMessage{FromPID: faninPIDs[i], Input: []float64{signal}}
			if err := actor.Post(message); err != nil {
				return CEPCommand{}, false, err
			}
		}
	}

	// Sync with the actor loop so the posted fan-in messages are fully
	// processed before error/command mailboxes are drained.
	syncID, err := actor.PostSync()
	if err != nil {
		return CEPCommand{}, false, err
	}
	if err := actor.AwaitSync(syncID); err != nil {
		return CEPCommand{}, false, err
	}

	for {
		nextErr := actor.NextError()
		if errors.Is(nextErr, ErrCEPActorNoError) {
			break
		}
		if nextErr != nil {
			return CEPCommand{}, false, nextErr
		}
	}

	command, err := actor.NextCommand()
	switch {
	case err == nil:
		return command, true, nil
	case errors.Is(err, ErrCEPActorNoCommandReady):
		return CEPCommand{}, false, nil
	default:
		return CEPCommand{}, false, err
	}
}

func (r *SimpleRuntime) postSubstrateCommand(weightIdx int, command CEPCommand) error {
	if weightIdx < 0 || weightIdx >= len(r.mailboxes) {
		return ErrMissingSubstrateMailbox
	}
	mailbox := r.mailboxes[weightIdx]
	if mailbox == nil {
		return ErrMissingSubstrateMailbox
	}
	target := strings.TrimSpace(mailbox.ID())
	if target != "" && strings.TrimSpace(command.ToPID) != target {
		return fmt.Errorf("%w: expected=%s got=%s", ErrUnexpectedCEPCommandTarget, target, strings.TrimSpace(command.ToPID))
	}
	return mailbox.Post(command)
}

func (r *SimpleRuntime) applySubstrateMailbox(weightIdx int, current float64) (float64, error) {
	if weightIdx < 0 || weightIdx >= len(r.mailboxes) {
		return 0, ErrMissingSubstrateMailbox
	}
	mailbox := r.mailboxes[weightIdx]
	if mailbox == nil {
		return 0, ErrMissingSubstrateMailbox
	}
	syncID, err := mailbox.PostSync()
	if err != nil {
		return 0, err
	}
	if err := mailbox.AwaitSync(syncID); err != nil {
		return 0, err
	}
	next := current
	for _, command := range mailbox.Drain() {
		updated, err := ApplyCEPCommand(next, command, r.params)
		if err != nil {
			return 0, err
		}
		next = updated
	}
	return next, nil
}

func validateCEPCommandEnvelope(command CEPCommand, expected cepActorInit) error {
	expectedSender := strings.TrimSpace(expected.id)
	if expectedSender != "" && strings.TrimSpace(command.FromPID) != expectedSender {
		return fmt.Errorf("%w: expected=%s got=%s", ErrUnexpectedCEPCommandSender, expectedSender, strings.TrimSpace(command.FromPID))
	}
	expectedTarget := strings.TrimSpace(expected.substratePID)
	if expectedTarget != "" && strings.TrimSpace(command.ToPID) != expectedTarget {
		return fmt.Errorf("%w: expected=%s got=%s", ErrUnexpectedCEPCommandTarget, expectedTarget, strings.TrimSpace(command.ToPID))
	}
	return nil
}

func resolveCEPChain(spec Spec) ([]CEP, error) {
	names := make([]string, 0, len(spec.CEPNames))
	for _, name := range spec.CEPNames {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		name := strings.TrimSpace(spec.CEPName)
		if name == "" {
			name = DefaultCEPName
		}
		names = append(names, name)
	}

	ceps := make([]CEP, 0, len(names))
	for _, name := range names {
		cep, err := ResolveCEP(name)
		if err != nil {
			return nil, err
		}
		ceps = append(ceps, cep)
	}
	return ceps, nil
}
