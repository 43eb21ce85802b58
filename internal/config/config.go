package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Dirs     DirsConfig     `yaml:"dirs" envconfig:"DIRS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
}

// DirsConfig contains the input and output directory layout.
type DirsConfig struct {
	Input   string `yaml:"input" envconfig:"INPUT" default:"data"`
	Reports string `yaml:"reports" envconfig:"REPORTS" default:"reports"`
	Exports string `yaml:"exports" envconfig:"EXPORTS" default:"exports"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/opsight.log"`
}

// AnalysisConfig contains the tunable analysis parameters shared by
// the case pipelines.
type AnalysisConfig struct {
	// CarryingCostRate is the annual inventory holding cost expressed
	// as a fraction of unit cost.
	CarryingCostRate float64 `yaml:"carrying_cost_rate" envconfig:"CARRYING_COST_RATE" default:"0.2"`

	// OrderingCost is the fixed cost per purchase order used by the
	// EOQ calculation.
	OrderingCost float64 `yaml:"ordering_cost" envconfig:"ORDERING_COST" default:"50"`

	// ABCClassACut and ABCClassBCut are cumulative value share
	// boundaries for ABC classification.
	ABCClassACut float64 `yaml:"abc_class_a_cut" envconfig:"ABC_CLASS_A_CUT" default:"0.80"`
	ABCClassBCut float64 `yaml:"abc_class_b_cut" envconfig:"ABC_CLASS_B_CUT" default:"0.95"`

	// Supplier risk score component weights, one per scaled component:
	// non-compliance rate, defect rate, lead time, order-status risk.
	// They must sum to 1.
	WeightNonCompliance float64 `yaml:"weight_non_compliance" envconfig:"WEIGHT_NON_COMPLIANCE" default:"0.25"`
	WeightDefectRate    float64 `yaml:"weight_defect_rate" envconfig:"WEIGHT_DEFECT_RATE" default:"0.25"`
	WeightLeadTime      float64 `yaml:"weight_lead_time" envconfig:"WEIGHT_LEAD_TIME" default:"0.25"`
	WeightStatusRisk    float64 `yaml:"weight_status_risk" envconfig:"WEIGHT_STATUS_RISK" default:"0.25"`

	// DefectReductionPct is the improvement assumed by the defect
	// what-if scenario.
	DefectReductionPct float64 `yaml:"defect_reduction_pct" envconfig:"DEFECT_REDUCTION_PCT" default:"0.25"`

	// ForecastPeriods is the number of future periods produced by the
	// trend forecasts.
	ForecastPeriods int `yaml:"forecast_periods" envconfig:"FORECAST_PERIODS" default:"3"`
}

// Load loads configuration from environment variables and an optional
// config file.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("OPSIGHT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := getConfigFilePath()
	if configFile != "" {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFile loads configuration from a specific YAML file, applying
// defaults for anything the file omits.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("OPSIGHT", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config defaults: %w", err)
	}

	fileConfig, err := loadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from file: %w", err)
	}
	cfg = mergeConfigs(*fileConfig, cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config over env defaults. A file value wins
// only where it is set.
func mergeConfigs(fileConfig, envConfig Config) Config {
	if fileConfig.Dirs.Input != "" {
		envConfig.Dirs.Input = fileConfig.Dirs.Input
	}
	if fileConfig.Dirs.Reports != "" {
		envConfig.Dirs.Reports = fileConfig.Dirs.Reports
	}
	if fileConfig.Dirs.Exports != "" {
		envConfig.Dirs.Exports = fileConfig.Dirs.Exports
	}

	if fileConfig.Logging.Level != "" {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Format != "" {
		envConfig.Logging.Format = fileConfig.Logging.Format
	}
	if fileConfig.Logging.Output != "" {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" {
		envConfig.Logging.FilePath = fileConfig.Logging.FilePath
	}

	if fileConfig.Analysis.CarryingCostRate != 0 {
		envConfig.Analysis.CarryingCostRate = fileConfig.Analysis.CarryingCostRate
	}
	if fileConfig.Analysis.OrderingCost != 0 {
		envConfig.Analysis.OrderingCost = fileConfig.Analysis.OrderingCost
	}
	if fileConfig.Analysis.ABCClassACut != 0 {
		envConfig.Analysis.ABCClassACut = fileConfig.Analysis.ABCClassACut
	}
	if fileConfig.Analysis.ABCClassBCut != 0 {
		envConfig.Analysis.ABCClassBCut = fileConfig.Analysis.ABCClassBCut
	}
	if fileConfig.Analysis.WeightNonCompliance != 0 {
		envConfig.Analysis.WeightNonCompliance = fileConfig.Analysis.WeightNonCompliance
	}
	if fileConfig.Analysis.WeightDefectRate != 0 {
		envConfig.Analysis.WeightDefectRate = fileConfig.Analysis.WeightDefectRate
	}
	if fileConfig.Analysis.WeightLeadTime != 0 {
		envConfig.Analysis.WeightLeadTime = fileConfig.Analysis.WeightLeadTime
	}
	if fileConfig.Analysis.WeightStatusRisk != 0 {
		envConfig.Analysis.WeightStatusRisk = fileConfig.Analysis.WeightStatusRisk
	}
	if fileConfig.Analysis.DefectReductionPct != 0 {
		envConfig.Analysis.DefectReductionPct = fileConfig.Analysis.DefectReductionPct
	}
	if fileConfig.Analysis.ForecastPeriods != 0 {
		envConfig.Analysis.ForecastPeriods = fileConfig.Analysis.ForecastPeriods
	}

	return envConfig
}

// validate validates the configuration.
func (c *Config) validate() error {
	if c.Dirs.Input == "" {
		return fmt.Errorf("input directory must be set")
	}
	if c.Dirs.Reports == "" {
		return fmt.Errorf("reports directory must be set")
	}
	if c.Dirs.Exports == "" {
		return fmt.Errorf("exports directory must be set")
	}

	if c.Analysis.CarryingCostRate <= 0 || c.Analysis.CarryingCostRate >= 1 {
		return fmt.Errorf("carrying cost rate must be in (0, 1): %v", c.Analysis.CarryingCostRate)
	}
	if c.Analysis.OrderingCost <= 0 {
		return fmt.Errorf("ordering cost must be positive: %v", c.Analysis.OrderingCost)
	}
	if c.Analysis.ABCClassACut <= 0 || c.Analysis.ABCClassACut >= c.Analysis.ABCClassBCut || c.Analysis.ABCClassBCut >= 1 {
		return fmt.Errorf("ABC cuts must satisfy 0 < A < B < 1: A=%v B=%v",
			c.Analysis.ABCClassACut, c.Analysis.ABCClassBCut)
	}

	weightSum := c.Analysis.WeightNonCompliance + c.Analysis.WeightDefectRate +
		c.Analysis.WeightLeadTime + c.Analysis.WeightStatusRisk
	if weightSum < 0.999 || weightSum > 1.001 {
		return fmt.Errorf("risk weights must sum to 1, got %v", weightSum)
	}

	if c.Analysis.DefectReductionPct < 0 || c.Analysis.DefectReductionPct > 1 {
		return fmt.Errorf("defect reduction must be in [0, 1]: %v", c.Analysis.DefectReductionPct)
	}
	if c.Analysis.ForecastPeriods <= 0 {
		return fmt.Errorf("forecast periods must be positive: %d", c.Analysis.ForecastPeriods)
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "both" && c.Logging.Output != "file" && c.Logging.Output != "console" {
		c.Logging.Output = "both"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/opsight.log"
	}

	return nil
}

// getConfigFilePath returns the path of the first config file found in
// the common locations, or empty when none exists.
func getConfigFilePath() string {
	locations := []string{
		"opsight.yaml",
		"configs/opsight.yaml",
		filepath.Join("..", "configs", "opsight.yaml"),
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Dirs: DirsConfig{
			Input:   "data",
			Reports: "reports",
			Exports: "exports",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/opsight.log",
		},
		Analysis: AnalysisConfig{
			CarryingCostRate:    0.2,
			OrderingCost:        50,
			ABCClassACut:        0.80,
			ABCClassBCut:        0.95,
			WeightNonCompliance: 0.25,
			WeightDefectRate:    0.25,
			WeightLeadTime:      0.25,
			WeightStatusRisk:    0.25,
			DefectReductionPct:  0.25,
			ForecastPeriods:     3,
		},
	}
}
