package statiming

import (
	"os"
	"strings"

	"github.com/tauphase/statiming/split"
	"gopkg.in/yaml.v3"
)

// ScenarioConfig is the small YAML descriptor LoadScenarioConfig reads to
// drive a run without a real shell: cutoff slacks
// per split/transition, the K used for path queries, and the clock
// period, standing in for the initial I/O timing config an interactive
// shell would otherwise set one command at a time.
type ScenarioConfig struct {
	Name          string             `yaml:"name"`
	ClockPin      string             `yaml:"clock_pin"`
	ClockPeriodPs float64            `yaml:"clock_period_ps"`
	CutoffSlack   map[string]float64 `yaml:"cutoff_slack"` // keys "early_rise", "early_fall", "late_rise", "late_fall"
	WorstPathsK   int                `yaml:"worst_paths_k"`
}

// LoadScenarioConfig reads and parses a ScenarioConfig from path.
func LoadScenarioConfig(path string) (*ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ScenarioConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.WorstPathsK <= 0 {
		cfg.WorstPathsK = 2
	}
	return &cfg, nil
}

// ApplyCutoffSlack pushes every configured cutoff_slack entry onto t via
// SetCutoffSlack, keyed "early_rise"/"early_fall"/"late_rise"/"late_fall".
func (t *Timer) ApplyCutoffSlack(cfg *ScenarioConfig) {
	for key, value := range cfg.CutoffSlack {
		el, rf, ok := parseSplitTransKey(key)
		if !ok {
			continue
		}
		t.SetCutoffSlack(el, rf, value)
	}
}

func parseSplitTransKey(key string) (split.Split, split.Trans, bool) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var el split.Split
	switch parts[0] {
	case "early":
		el = split.Early
	case "late":
		el = split.Late
	default:
		return 0, 0, false
	}
	var rf split.Trans
	switch parts[1] {
	case "rise":
		rf = split.Rise
	case "fall":
		rf = split.Fall
	default:
		return 0, 0, false
	}
	return el, rf, true
}
