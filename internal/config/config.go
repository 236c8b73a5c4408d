package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file created by `salespipe init`.
const FileName = "salespipe.yaml"

// EnvPrefix prefixes every environment override, e.g. SALESPIPE_OUTPUT_DIR.
const EnvPrefix = "SALESPIPE"

// Discount policies for values outside [0,100].
const (
	DiscountClamp = "clamp"
	DiscountDrop  = "drop"
)

// Config represents the top-level salespipe.yaml configuration.
type Config struct {
	Project  ProjectConfig  `yaml:"project" envconfig:"PROJECT"`
	Input    InputConfig    `yaml:"input" envconfig:"INPUT"`
	Cleaning CleaningConfig `yaml:"cleaning" envconfig:"CLEANING"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Metrics  MetricsConfig  `yaml:"metrics" envconfig:"METRICS"`
	Git      GitConfig      `yaml:"git" envconfig:"GIT"`

	// Root is the directory holding the config file. Relative paths resolve against it.
	Root string `yaml:"-" ignored:"true"`
}

// ProjectConfig names the dataset.
type ProjectConfig struct {
	Name string `yaml:"name" envconfig:"NAME" validate:"required"`
}

// InputConfig locates raw files.
type InputConfig struct {
	Inbox string `yaml:"inbox" envconfig:"INBOX" validate:"required"`
}

// CleaningConfig controls the row-level rules.
type CleaningConfig struct {
	DateFormats    []string `yaml:"date_formats" envconfig:"DATE_FORMATS" validate:"min=1,dive,required"`
	DiscountPolicy string   `yaml:"discount_policy" envconfig:"DISCOUNT_POLICY" validate:"oneof=clamp drop"`
	MinUnitsSold   int      `yaml:"min_units_sold" envconfig:"MIN_UNITS_SOLD" validate:"gte=0"`
	OutlierIQR     float64  `yaml:"outlier_iqr" envconfig:"OUTLIER_IQR" validate:"gte=0"` // 0 disables
	RegionsFile    string   `yaml:"regions_file" envconfig:"REGIONS_FILE"`
	StrictRegions  bool     `yaml:"strict_regions" envconfig:"STRICT_REGIONS"` // drop rows whose region is missing from the reference
}

// OutputConfig controls what the exporter writes.
type OutputConfig struct {
	Dir        string   `yaml:"dir" envconfig:"DIR" validate:"required"`
	Formats    []string `yaml:"formats" envconfig:"FORMATS" validate:"min=1,dive,oneof=csv xlsx sqlite"`
	Dimensions []string `yaml:"dimensions" envconfig:"DIMENSIONS" validate:"dive,oneof=region category channel month quarter gender discount_tier day_of_week product"`
	RunLog     string   `yaml:"run_log" envconfig:"RUN_LOG"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=text json"`
}

// MetricsConfig controls the Prometheus textfile. Empty Textfile disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" envconfig:"TEXTFILE"`
}

// GitConfig controls committing exports.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit" envconfig:"AUTO_COMMIT"`
	AuthorName  string `yaml:"author_name" envconfig:"AUTHOR_NAME"`
	AuthorEmail string `yaml:"author_email" envconfig:"AUTHOR_EMAIL" validate:"omitempty,email"`
}

// DefaultDateFormats is the parse priority for Order_Date. Day-first layouts
// come before month-first ones.
var DefaultDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Load reads a salespipe.yaml file from disk. Keys missing from the file keep
// their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Root = filepath.Dir(path)
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(name string) *Config {
	return &Config{
		Project: ProjectConfig{Name: name},
		Input:   InputConfig{Inbox: "data"},
		Cleaning: CleaningConfig{
			DateFormats:    append([]string(nil), DefaultDateFormats...),
			DiscountPolicy: DiscountClamp,
			MinUnitsSold:   1,
			RegionsFile:    filepath.Join("reference", "regions.csv"),
		},
		Output: OutputConfig{
			Dir:        "output",
			Formats:    []string{"csv"},
			Dimensions: []string{"region", "category", "channel", "month"},
			RunLog:     filepath.Join("logs", "run-log.csv"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Git: GitConfig{
			AuthorName:  "salespipe",
			AuthorEmail: "salespipe@localhost",
		},
		Root: ".",
	}
}

// Open loads the project config at path for a run. A missing file yields the
// defaults. A .env file next to the config is loaded first, then SALESPIPE_*
// variables override file values, and the result is validated.
func Open(path string) (*Config, error) {
	root := filepath.Dir(path)
	if err := loadDotEnv(filepath.Join(root, ".env")); err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		name := "sales"
		if abs, absErr := filepath.Abs(root); absErr == nil {
			name = filepath.Base(abs)
		}
		cfg = Default(name)
		cfg.Root = root
	} else if err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Path resolves p against the config root unless it is absolute or empty.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}
