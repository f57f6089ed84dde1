package genotype

import (
	"strconv"
	"strings"
)

// parseLayerIndex extracts the layer index encoded in an ID such as
// "L1:out:0" or "0.5", trying the whole string as a float first and then
// the token before the first recognized separator.
func parseLayerIndex(id string) (float64, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, false
	}
	if layer, ok := parseFloatToken(id); ok {
		return layer, true
	}
	for _, sep := range []string{":", "|", "/", ","} {
		if token, _, ok := strings.Cut(id, sep); ok {
			if layer, ok := parseFloatToken(token); ok {
				return layer, true
			}
		}
	}
	return 0, false
}

func parseFloatToken(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	for _, prefix := range []string{"layer", "li", "l", "L", "="} {
		token = strings.TrimPrefix(token, prefix)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	layer, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return layer, true
}

func sanitizeID(id string) string {
	replacer := strings.NewReplacer(":", "_", "|", "_", "/", "_", " ", "_")
	return replacer.Replace(strings.TrimSpace(id))
}

func uniqueNonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// circuitActivationTag reports whether values carries a "circuit" or
// "circuit:<activation>" tag, and if so which activation the circuit
// output neuron should use (tanh by default).
func circuitActivationTag(values []string) (bool, string) {
	for _, value := range values {
		candidate := strings.TrimSpace(value)
		if candidate == "" {
			continue
		}
		lower := strings.ToLower(candidate)
		if lower == "circuit" {
			return true, "tanh"
		}
		if strings.HasPrefix(lower, "circuit:") {
			_, raw, _ := strings.Cut(candidate, ":")
			if raw = strings.TrimSpace(raw); raw == "" {
				return true, "tanh"
			}
			return true, raw
		}
	}
	return false, ""
}

func stripCircuitActivations(values []string) []string {
	filtered := make([]string, 0, len(values))
	for _, value := range values {
		candidate := strings.TrimSpace(value)
		if candidate == "" {
			continue
		}
		if tagged, _ := circuitActivationTag([]string{candidate}); tagged {
			continue
		}
		filtered = append(filtered, candidate)
	}
	return filtered
}
