package config

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/unaq/indicator-report/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Period     PeriodConfig   `yaml:"period" mapstructure:"period"`
	Inputs     InputsConfig   `yaml:"inputs" mapstructure:"inputs"`
	Filters    FiltersConfig  `yaml:"filters" mapstructure:"filters"`
	Admissions map[string]int `yaml:"admissions" mapstructure:"admissions"`
	Capture    CaptureConfig  `yaml:"capture" mapstructure:"capture"`
	Store      StoreConfig    `yaml:"store" mapstructure:"store"`
	Report     ReportConfig   `yaml:"report" mapstructure:"report"`
	Server     ServerConfig   `yaml:"server" mapstructure:"server"`
	Log        LogConfig      `yaml:"log" mapstructure:"log"`
}

// PeriodConfig selects the reporting period. A zero year means the current
// year.
type PeriodConfig struct {
	Cuatrimestre string `yaml:"cuatrimestre" mapstructure:"cuatrimestre"`
	Year         int    `yaml:"year" mapstructure:"year"`
}

// InputsConfig names the input files.
type InputsConfig struct {
	Enrollment   string `yaml:"enrollment" mapstructure:"enrollment"`
	Graduates    string `yaml:"graduates" mapstructure:"graduates"`
	Indicators   string `yaml:"indicators" mapstructure:"indicators"`
	TargetsSheet string `yaml:"targets_sheet" mapstructure:"targets_sheet"`
	// AdmissionsFile is an optional YAML map of program code to admissions.
	AdmissionsFile string `yaml:"admissions_file" mapstructure:"admissions_file"`
	CSVEncoding    string `yaml:"csv_encoding" mapstructure:"csv_encoding"`
	CSVDelimiter   string `yaml:"csv_delimiter" mapstructure:"csv_delimiter"`
}

// FiltersConfig holds the multi-select filters. Keys are column names (or
// graduate levels for generations); empty lists do not filter.
type FiltersConfig struct {
	Enrollment  map[string][]string `yaml:"enrollment" mapstructure:"enrollment"`
	Graduates   map[string][]string `yaml:"graduates" mapstructure:"graduates"`
	Generations map[string][]string `yaml:"generations" mapstructure:"generations"`
}

// CaptureConfig configures manual capture listings.
type CaptureConfig struct {
	PageSize int `yaml:"page_size" mapstructure:"page_size"`
}

// StoreConfig configures the capture store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ReportConfig configures the generated documents.
type ReportConfig struct {
	OutputDir   string   `yaml:"output_dir" mapstructure:"output_dir"`
	Formats     []string `yaml:"formats" mapstructure:"formats"`
	LogoPath    string   `yaml:"logo_path" mapstructure:"logo_path"`
	Title       string   `yaml:"title" mapstructure:"title"`
	Institution string   `yaml:"institution" mapstructure:"institution"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("INDICATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("period.cuatrimestre", string(model.DefaultCuatrimestre))
	v.SetDefault("period.year", 0)
	v.SetDefault("inputs.targets_sheet", "Hoja2")
	v.SetDefault("inputs.csv_encoding", "utf-8")
	v.SetDefault("inputs.csv_delimiter", ",")
	v.SetDefault("capture.page_size", 20)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "capturas.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.formats", []string{"xlsx", "pdf", "json"})
	v.SetDefault("report.logo_path", "unaq_logo.png")
	v.SetDefault("report.title", "Matriz de Seguimiento a Metas e Indicadores")
	v.SetDefault("report.institution", "Universidad Aeronáutica en Querétaro")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// ResolvePeriod parses the configured period. A zero year becomes the
// current year, or the last accepted year when out of range.
func (c *Config) ResolvePeriod(now time.Time) (model.Period, error) {
	cuatri, err := model.ParseCuatrimestre(c.Period.Cuatrimestre)
	if err != nil {
		return model.Period{}, err
	}
	p := model.Period{Cuatrimestre: cuatri, Year: c.Period.Year}
	if p.Year == 0 {
		p.Year = model.DefaultYear(now)
	}
	if err := p.Validate(); err != nil {
		return model.Period{}, err
	}
	return p, nil
}

// AdmissionCounts merges the admissions file with the inline admissions
// map; inline values win. Unknown program codes are an error.
func (c *Config) AdmissionCounts() (map[model.ProgramCode]int, error) {
	raw := make(map[string]int)
	if c.Inputs.AdmissionsFile != "" {
		fromFile, err := LoadAdmissionsFile(c.Inputs.AdmissionsFile)
		if err != nil {
			return nil, err
		}
		for k, n := range fromFile {
			raw[strings.ToUpper(k)] = n
		}
	}
	for k, n := range c.Admissions {
		raw[strings.ToUpper(k)] = n
	}
	return ParseAdmissions(raw)
}

// ParseAdmissions converts code keys to program codes.
func ParseAdmissions(raw map[string]int) (map[model.ProgramCode]int, error) {
	out := make(map[model.ProgramCode]int, len(raw))
	var unknown []string
	for k, n := range raw {
		code, ok := model.ParseProgramCode(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if n < 0 {
			return nil, eris.Errorf("config: admissions for %s must not be negative", code)
		}
		out[code] = n
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, eris.Errorf("config: unknown program codes in admissions: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// LoadAdmissionsFile reads a YAML map of program code to admissions.
func LoadAdmissionsFile(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read admissions file %s", path)
	}
	var out map[string]int
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrapf(err, "config: parse admissions file %s", path)
	}
	return out, nil
}

// Validate checks the settings a command mode depends on: "report",
// "capture" or "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	storeChecks := func() {
		switch c.Store.Driver {
		case "memory", "sqlite":
		case "postgres":
			if c.Store.DatabaseURL == "" {
				errs = append(errs, "store.database_url is required for postgres")
			}
		default:
			errs = append(errs, "store.driver must be memory, sqlite or postgres")
		}
	}
	periodChecks := func() {
		if _, err := model.ParseCuatrimestre(c.Period.Cuatrimestre); err != nil {
			errs = append(errs, "period.cuatrimestre must be C1, C2 or C3")
		}
		if y := c.Period.Year; y != 0 && (y < model.MinYear || y > model.MaxYear) {
			errs = append(errs, "period.year must lie in 2020..2035")
		}
	}

	switch mode {
	case "report":
		storeChecks()
		periodChecks()
		if c.Report.OutputDir == "" {
			errs = append(errs, "report.output_dir is required")
		}
	case "capture":
		storeChecks()
		if c.Capture.PageSize <= 0 {
			errs = append(errs, "capture.page_size must be > 0")
		}
	case "serve":
		storeChecks()
		periodChecks()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
