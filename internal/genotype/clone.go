package genotype

import "bardo/internal/model"

// CloneGenome returns a deep copy of g: every slice and map is
// reallocated so mutating the clone (weight tuning, topology mutation)
// can never reach back into the source genome's storage.
func CloneGenome(source model.Genome) model.Genome {
	clone := source
	clone.Neurons = append([]model.Neuron(nil), source.Neurons...)
	for i := range clone.Neurons {
		if len(clone.Neurons[i].PlasticityBiasParams) != 0 {
			clone.Neurons[i].PlasticityBiasParams = append([]float64(nil), clone.Neurons[i].PlasticityBiasParams...)
		}
	}
	clone.Synapses = cloneSynapses(source.Synapses)
	clone.SensorIDs = append([]string(nil), source.SensorIDs...)
	clone.ActuatorIDs = append([]string(nil), source.ActuatorIDs...)
	clone.ActuatorTunables = cloneFloatMap(source.ActuatorTunables)
	clone.ActuatorGenerations = cloneIntMap(source.ActuatorGenerations)
	clone.SensorNeuronLinks = append([]model.SensorNeuronLink(nil), source.SensorNeuronLinks...)
	clone.NeuronActuatorLinks = append([]model.NeuronActuatorLink(nil), source.NeuronActuatorLinks...)
	clone.Substrate = cloneSubstrateSpec(source.Substrate)
	if source.Plasticity != nil {
		p := *source.Plasticity
		clone.Plasticity = &p
	}
	if source.Strategy != nil {
		s := *source.Strategy
		clone.Strategy = &s
	}
	return clone
}

func cloneSynapses(synapses []model.Synapse) []model.Synapse {
	out := append([]model.Synapse(nil), synapses...)
	for i := range out {
		if len(out[i].PlasticityParams) != 0 {
			out[i].PlasticityParams = append([]float64(nil), out[i].PlasticityParams...)
		}
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneSubstrateSpec(spec *model.SubstrateConfig) *model.SubstrateConfig {
	if spec == nil {
		return nil
	}
	out := *spec
	out.CPPIDs = append([]string(nil), spec.CPPIDs...)
	out.CEPIDs = append([]string(nil), spec.CEPIDs...)
	out.Dimensions = append([]int(nil), spec.Dimensions...)
	if spec.Parameters != nil {
		out.Parameters = make(map[string]float64, len(spec.Parameters))
		for k, v := range spec.Parameters {
			out.Parameters[k] = v
		}
	}
	return &out
}
