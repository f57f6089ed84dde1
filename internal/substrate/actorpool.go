package substrate

import (
	"fmt"
	"strings"
)

// cepActorInit is the recipe used to spin up one CEP's actor for one
// substrate weight: which cortex/substrate PIDs it answers to, which CEP
// it runs, and which upstream PIDs feed it.
type cepActorInit struct {
	id           string
	cxPID        string
	substratePID string
	cepName      string
	parameters   map[string]float64
	faninPIDs    []string
}

// buildCEPActorInits derives one init recipe per CEP in the chain,
// resolving each CEP's fan-in PIDs from its per-CEP override or the
// runtime-wide default.
func buildCEPActorInits(ceps []CEP, parameters map[string]float64, faninPIDs []string, faninPIDsByCEP [][]string) ([]cepActorInit, [][]string, error) {
	inits := make([]cepActorInit, 0, len(ceps))
	processFaninPIDs := make([][]string, 0, len(ceps))
	for i, cep := range ceps {
		baseFanin := faninPIDs
		if i < len(faninPIDsByCEP) && len(faninPIDsByCEP[i]) > 0 {
			baseFanin = faninPIDsByCEP[i]
		}
		cepFaninPIDs := resolveCEPProcessFaninPIDs(cep.Name(), baseFanin)
		if len(cepFaninPIDs) == 0 {
			return nil, nil, fmt.Errorf("new cep process for %s: fanin pids are required", cep.Name())
		}
		inits = append(inits, cepActorInit{
			id:           fmt.Sprintf("cep_%d", i+1),
			cxPID:        runtimeCortexProcessID,
			substratePID: runtimeSubstrateProcessID,
			cepName:      cep.Name(),
			parameters:   cloneFloatMap(parameters),
			faninPIDs:    append([]string(nil), cepFaninPIDs...),
		})
		processFaninPIDs = append(processFaninPIDs, cepFaninPIDs)
	}
	return inits, processFaninPIDs, nil
}

func buildCEPActors(inits []cepActorInit) ([]*CEPActor, error) {
	if len(inits) == 0 {
		return nil, nil
	}
	actors := make([]*CEPActor, 0, len(inits))
	for _, init := range inits {
		actor := NewCEPActorWithOwner(runtimeExoSelfProcessID)
		if _, _, err := actor.Call(CEPInitMessage{
			FromPID:      runtimeExoSelfProcessID,
			ID:           init.id,
			CxPID:        init.cxPID,
			SubstratePID: init.substratePID,
			CEPName:      init.cepName,
			Parameters:   init.parameters,
			FaninPIDs:    init.faninPIDs,
		}); err != nil {
			return nil, fmt.Errorf("init cep actor %s: %w", init.id, err)
		}
		actors = append(actors, actor)
	}
	return actors, nil
}

// buildCEPActorPool allocates one independent actor set per weight so
// weights evolve their CEP state concurrently without cross-talk. On
// failure it tears down every actor set already started.
func buildCEPActorPool(inits []cepActorInit, weightCount int) ([][]*CEPActor, error) {
	if len(inits) == 0 {
		return nil, nil
	}
	pool := make([][]*CEPActor, 0, weightCount)
	for weightIdx := 0; weightIdx < weightCount; weightIdx++ {
		actors, err := buildCEPActors(scopeCEPActorInitsForWeight(inits, weightIdx))
		if err != nil {
			for _, actorSet := range pool {
				for _, actor := range actorSet {
					if actor == nil {
						continue
					}
					_ = actor.TerminateFrom(runtimeExoSelfProcessID)
				}
			}
			return nil, err
		}
		pool = append(pool, actors)
	}
	return pool, nil
}

// scopeCEPActorInitsForWeight rewrites a shared init template with
// weight-specific substrate PID and actor id suffixes so each weight's
// actors address a distinct mailbox.
func scopeCEPActorInitsForWeight(inits []cepActorInit, weightIdx int) []cepActorInit {
	if len(inits) == 0 {
		return nil
	}
	out := make([]cepActorInit, 0, len(inits))
	for _, init := range inits {
		scoped := init
		scoped.parameters = cloneFloatMap(init.parameters)
		scoped.faninPIDs = append([]string(nil), init.faninPIDs...)
		scoped.cxPID = strings.TrimSpace(init.cxPID)

		baseSubstrateID := strings.TrimSpace(init.substratePID)
		if baseSubstrateID == "" {
			baseSubstrateID = runtimeSubstrateProcessID
		}
		scoped.substratePID = fmt.Sprintf("%s_w%d", baseSubstrateID, weightIdx+1)

		baseID := strings.TrimSpace(scoped.id)
		if baseID == "" {
			baseID = fmt.Sprintf("cep_%d", len(out)+1)
		}
		scoped.id = fmt.Sprintf("%s_w%d", baseID, weightIdx+1)
		out = append(out, scoped)
	}
	return out
}

func cloneCEPActorInits(inits []cepActorInit) []cepActorInit {
	if len(inits) == 0 {
		return nil
	}
	out := make([]cepActorInit, 0, len(inits))
	for _, init := range inits {
		cloned := init
		cloned.parameters = cloneFloatMap(init.parameters)
		cloned.faninPIDs = append([]string(nil), init.faninPIDs...)
		out = append(out, cloned)
	}
	return out
}

// buildCEPFaninRelayPool spins up one CEPFaninRelay per (weight, CEP,
// fan-in PID) triple so every fan-in source has a dedicated serialization
// point into its actor.
func buildCEPFaninRelayPool(cepActorPool [][]*CEPActor, cepProcessFaninPIDs [][]string) [][][]*CEPFaninRelay {
	if len(cepActorPool) == 0 {
		return nil
	}
	pool := make([][][]*CEPFaninRelay, 0, len(cepActorPool))
	for weightIdx, actorSet := range cepActorPool {
		weightRelays := make([][]*CEPFaninRelay, 0, len(actorSet))
		for cepIdx, actor := range actorSet {
			faninPIDs := []string{runtimeCPPProcessID}
			if cepIdx < len(cepProcessFaninPIDs) && len(cepProcessFaninPIDs[cepIdx]) > 0 {
				faninPIDs = cepProcessFaninPIDs[cepIdx]
			}
			cepRelays := make([]*CEPFaninRelay, 0, len(faninPIDs))
			for faninIdx, faninPID := range faninPIDs {
				relayID := fmt.Sprintf("fanin_%d_cep_%d_w%d", faninIdx+1, cepIdx+1, weightIdx+1)
				cepRelays = append(cepRelays, NewCEPFaninRelay(relayID, faninPID, actor))
			}
			weightRelays = append(weightRelays, cepRelays)
		}
		pool = append(pool, weightRelays)
	}
	return pool
}

func trimCEPFaninPIDs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, pid := range raw {
		if trimmed := strings.TrimSpace(pid); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeCEPFaninPIDsByCEP(raw [][]string) [][]string {
	if len(raw) == 0 {
		return nil
	}
	out := make([][]string, 0, len(raw))
	for _, item := range raw {
		out = append(out, trimCEPFaninPIDs(item))
	}
	return out
}

func resolveGlobalCEPFaninPIDs(global []string, byCEP [][]string) []string {
	if trimmed := trimCEPFaninPIDs(global); len(trimmed) > 0 {
		return trimmed
	}
	for _, fanin := range byCEP {
		if len(fanin) == 0 {
			continue
		}
		return append([]string(nil), fanin...)
	}
	return []string{runtimeCPPProcessID}
}

func canUseInputFanInSignals(ceps []CEP) bool {
	if len(ceps) == 0 {
		return false
	}
	for _, cep := range ceps {
		if strings.TrimSpace(cep.Name()) != SetABCNCEPName {
			return false
		}
	}
	return true
}

func resolveCEPProcessFaninPIDs(cepName string, faninPIDs []string) []string {
	if strings.TrimSpace(cepName) == SetABCNCEPName {
		return append([]string(nil), faninPIDs...)
	}
	if len(faninPIDs) == 0 {
		return []string{runtimeCPPProcessID}
	}
	return []string{faninPIDs[0]}
}
