// Package model holds the wire and storage shapes shared across the
// genotype, evolution, tuning, and substrate packages. Nothing in here
// carries behavior; it is the vocabulary the rest of the engine speaks.
package model

// VersionedRecord is embedded in every persisted record so storage can
// detect a schema or codec change and migrate (or refuse) old data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Genome is the evolvable unit: a neuron/synapse graph plus the sensor
// and actuator bindings, substrate wiring, plasticity rule, and tuning
// strategy that together define one agent's phenotype.
type Genome struct {
	VersionedRecord
	ID string `json:"id"`

	Neurons  []Neuron  `json:"neurons"`
	Synapses []Synapse `json:"synapses"`

	SensorIDs   []string `json:"sensor_ids"`
	ActuatorIDs []string `json:"actuator_ids"`

	// ActuatorTunables holds a per-actuator output offset that tuning can
	// adjust independently of synapse weights.
	ActuatorTunables map[string]float64 `json:"actuator_tunables,omitempty"`
	// ActuatorGenerations records the generation each actuator binding
	// was introduced at, for lineage reporting.
	ActuatorGenerations map[string]int `json:"actuator_generations,omitempty"`

	SensorNeuronLinks   []SensorNeuronLink   `json:"sensor_neuron_links,omitempty"`
	NeuronActuatorLinks []NeuronActuatorLink `json:"neuron_actuator_links,omitempty"`
	SensorLinks         int                  `json:"sensor_links,omitempty"`
	ActuatorLinks       int                  `json:"actuator_links,omitempty"`

	Substrate  *SubstrateConfig  `json:"substrate,omitempty"`
	Plasticity *PlasticityConfig `json:"plasticity,omitempty"`
	Strategy   *StrategyConfig   `json:"strategy,omitempty"`
}

// SensorNeuronLink pins a sensor's output onto a specific input neuron,
// overriding the positional fallback a cortex would otherwise use.
type SensorNeuronLink struct {
	SensorID string `json:"sensor_id"`
	NeuronID string `json:"neuron_id"`
}

// NeuronActuatorLink pins an output neuron's value onto a specific
// actuator slot.
type NeuronActuatorLink struct {
	NeuronID   string `json:"neuron_id"`
	ActuatorID string `json:"actuator_id"`
}

// StrategyConfig carries the per-genome heredity and tuning-selection
// choices made at construction time (Lamarckian vs Darwinian, which
// annealing schedule, which topological mutation policy).
type StrategyConfig struct {
	TuningSelection  string  `json:"tuning_selection"`
	AnnealingFactor  float64 `json:"annealing_factor"`
	TopologicalMode  string  `json:"topological_mode"`
	TopologicalParam float64 `json:"topological_param,omitempty"`
	HeredityType     string  `json:"heredity_type"`
}

// SubstrateConfig describes an optional geometric embedding (a CPPN-style
// substrate) layered on top of the raw neuron graph.
type SubstrateConfig struct {
	CPPName string `json:"cpp_name"`
	CEPName string `json:"cep_name"`
	// CPPIDs and CEPIDs are the substrate endpoint identifiers a
	// coordinate pattern producer / connectivity expression producer
	// chain exposes for sensor and actuator link remapping.
	CPPIDs      []string           `json:"cpp_ids,omitempty"`
	CEPIDs      []string           `json:"cep_ids,omitempty"`
	Dimensions  []int              `json:"dimensions"`
	Parameters  map[string]float64 `json:"parameters"`
	WeightCount int                `json:"weight_count"`
}

// PlasticityConfig names the plasticity rule applied to synapse weights
// after each forward pass (e.g. Hebbian, Oja) and its coefficients.
type PlasticityConfig struct {
	Rule            string  `json:"rule"`
	Rate            float64 `json:"rate"`
	SaturationLimit float64 `json:"saturation_limit"`
	CoeffA          float64 `json:"coeff_a,omitempty"`
	CoeffB          float64 `json:"coeff_b,omitempty"`
	CoeffC          float64 `json:"coeff_c,omitempty"`
	CoeffD          float64 `json:"coeff_d,omitempty"`
}

// Neuron is a single node in the genome graph.
type Neuron struct {
	ID         string `json:"id"`
	Generation int    `json:"generation,omitempty"`
	Activation string `json:"activation"`
	Aggregator string `json:"aggregator,omitempty"`

	PlasticityRule string  `json:"plasticity_rule,omitempty"`
	PlasticityRate float64 `json:"plasticity_rate,omitempty"`
	PlasticityA    float64 `json:"plasticity_a,omitempty"`
	PlasticityB    float64 `json:"plasticity_b,omitempty"`
	PlasticityC    float64 `json:"plasticity_c,omitempty"`
	PlasticityD    float64 `json:"plasticity_d,omitempty"`
	// PlasticityBiasParams holds the self-modulation rules' per-neuron bias
	// term, parallel to Synapse.PlasticityParams for incoming edges.
	PlasticityBiasParams []float64 `json:"plasticity_bias_params,omitempty"`

	Bias float64 `json:"bias"`
}

// Synapse is a directed, weighted edge between two neuron ids.
type Synapse struct {
	ID        string  `json:"id"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Weight    float64 `json:"weight"`
	Enabled   bool    `json:"enabled"`
	Recurrent bool    `json:"recurrent"`

	PlasticityParams []float64 `json:"plasticity_params,omitempty"`
}
