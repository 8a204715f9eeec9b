// Package testutil provides shared test helpers for doug Go tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenariosDir is the scenarios root relative to cmd/doug.
const ScenariosDir = "../../testdata/scenarios"

// Scenario represents a CLI scenario loaded from a scenario.json file.
type Scenario struct {
	Cmd    []string       `json:"cmd"`
	Stdin  string         `json:"stdin,omitempty"`
	Meta   *ScenarioMeta  `json:"meta,omitempty"`
	Expect ExpectedResult `json:"expect"`
}

// ScenarioMeta holds optional scenario metadata.
type ScenarioMeta struct {
	Tags []string `json:"tags,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode         int             `json:"exitCode"`
	StdoutJSON       json.RawMessage `json:"stdoutJson,omitempty"`
	StdoutText       *string         `json:"stdoutText,omitempty"`
	StdoutContains   string          `json:"stdoutContains,omitempty"`
	StderrJSONSubset json.RawMessage `json:"stderrJsonSubset,omitempty"`
	StderrContains   string          `json:"stderrContains,omitempty"`
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListScenarios returns all scenario directories under the given root, sorted.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			scenarioPath := filepath.Join(root, e.Name(), "scenario.json")
			if _, err := os.Stat(scenarioPath); err == nil {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// ResolveArgs rewrites program file arguments (*.doug) to paths inside
// the scenario directory.
func ResolveArgs(scenarioDir string, cmd []string) []string {
	out := make([]string, len(cmd))
	for i, arg := range cmd {
		if strings.HasSuffix(arg, ".doug") && !filepath.IsAbs(arg) {
			arg = filepath.Join(scenarioDir, arg)
		}
		out[i] = arg
	}
	return out
}

// DecodeDiagnostics parses diagnostic output, either a single JSON object
// or an array of them, into generic maps.
func DecodeDiagnostics(output string) ([]map[string]any, error) {
	trimmed := strings.TrimSpace(output)
	if strings.HasPrefix(trimmed, "[") {
		var diags []map[string]any
		err := json.Unmarshal([]byte(trimmed), &diags)
		return diags, err
	}
	var diag map[string]any
	if err := json.Unmarshal([]byte(trimmed), &diag); err != nil {
		return nil, err
	}
	return []map[string]any{diag}, nil
}

// IsSubset reports whether every key of expected is present in actual
// with an equal value, comparing nested objects recursively.
func IsSubset(expected, actual map[string]any) bool {
	for k, ev := range expected {
		av, ok := actual[k]
		if !ok {
			return false
		}
		em, eIsMap := ev.(map[string]any)
		am, aIsMap := av.(map[string]any)
		if eIsMap && aIsMap {
			if !IsSubset(em, am) {
				return false
			}
			continue
		}
		eb, _ := json.Marshal(ev)
		ab, _ := json.Marshal(av)
		if string(eb) != string(ab) {
			return false
		}
	}
	return true
}
