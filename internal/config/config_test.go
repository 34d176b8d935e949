package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unaq/indicator-report/internal/model"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "C2", cfg.Period.Cuatrimestre)
	assert.Equal(t, 0, cfg.Period.Year)
	assert.Equal(t, "Hoja2", cfg.Inputs.TargetsSheet)
	assert.Equal(t, "utf-8", cfg.Inputs.CSVEncoding)
	assert.Equal(t, 20, cfg.Capture.PageSize)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "capturas.db", cfg.Store.DatabaseURL)
	assert.Equal(t, ".", cfg.Report.OutputDir)
	assert.Equal(t, []string{"xlsx", "pdf", "json"}, cfg.Report.Formats)
	assert.Equal(t, "unaq_logo.png", cfg.Report.LogoPath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
period:
  cuatrimestre: C3
  year: 2026
inputs:
  enrollment: inscritos.xlsx
  indicators: indicadores.xlsx
filters:
  enrollment:
    Sexo: [F]
  generations:
    Ingeniería: ["2019-2023"]
admissions:
  IMA: 40
  tsua: 12
store:
  driver: memory
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "C3", cfg.Period.Cuatrimestre)
	assert.Equal(t, 2026, cfg.Period.Year)
	assert.Equal(t, "inscritos.xlsx", cfg.Inputs.Enrollment)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)

	// Keys are lowercased by viper; consumers match them case-insensitively.
	assert.Equal(t, []string{"F"}, cfg.Filters.Enrollment["sexo"])
	assert.Equal(t, []string{"2019-2023"}, cfg.Filters.Generations["ingeniería"])

	counts, err := cfg.AdmissionCounts()
	require.NoError(t, err)
	assert.Equal(t, map[model.ProgramCode]int{model.ProgramIMA: 40, model.ProgramTSUA: 12}, counts)

	// Defaults still apply for unset values
	assert.Equal(t, 20, cfg.Capture.PageSize)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("INDICATOR_STORE_DRIVER", "postgres")
	t.Setenv("INDICATOR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("INDICATOR_SERVER_PORT", "3000")
	t.Setenv("INDICATOR_PERIOD_CUATRIMESTRE", "C1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "C1", cfg.Period.Cuatrimestre)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("period: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestResolvePeriod(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		cfg     PeriodConfig
		want    model.Period
		wantErr bool
	}{
		{"defaults to current year", PeriodConfig{Cuatrimestre: "c1"}, model.Period{Cuatrimestre: model.C1, Year: 2025}, false},
		{"empty cuatrimestre", PeriodConfig{Year: 2030}, model.Period{Cuatrimestre: model.C2, Year: 2030}, false},
		{"year out of range", PeriodConfig{Cuatrimestre: "C2", Year: 2040}, model.Period{}, true},
		{"unknown cuatrimestre", PeriodConfig{Cuatrimestre: "C4"}, model.Period{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Period: tt.cfg}
			got, err := cfg.ResolvePeriod(now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePeriod_OutOfRangeYearFallsBackToLast(t *testing.T) {
	cfg := &Config{}
	got, err := cfg.ResolvePeriod(time.Date(2040, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.MaxYear, got.Year)

	got, err = cfg.ResolvePeriod(time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.MaxYear, got.Year)
}

func TestAdmissionCounts_FileAndInline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ingresos.yaml")
	require.NoError(t, os.WriteFile(path, []byte("IMA: 30\nMIA: 5\n"), 0o644))

	cfg := &Config{
		Inputs:     InputsConfig{AdmissionsFile: path},
		Admissions: map[string]int{"ima": 40},
	}
	counts, err := cfg.AdmissionCounts()
	require.NoError(t, err)
	assert.Equal(t, map[model.ProgramCode]int{model.ProgramIMA: 40, model.ProgramMIA: 5}, counts)
}

func TestAdmissionCounts_Errors(t *testing.T) {
	cfg := &Config{Admissions: map[string]int{"XYZ": 1, "ABC": 2}}
	_, err := cfg.AdmissionCounts()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ABC, XYZ")

	cfg = &Config{Admissions: map[string]int{"IMA": -1}}
	_, err = cfg.AdmissionCounts()
	assert.Error(t, err)

	cfg = &Config{Inputs: InputsConfig{AdmissionsFile: filepath.Join(t.TempDir(), "none.yaml")}}
	_, err = cfg.AdmissionCounts()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Period.Cuatrimestre = "C2"
	cfg.Store.Driver = "sqlite"
	cfg.Capture.PageSize = 20
	cfg.Report.OutputDir = "."
	cfg.Server.Port = 8080
	cfg.Server.MaxUploadMB = 32
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"report", "capture", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("capture")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/indicadores"
	assert.NoError(t, cfg.Validate("capture"))
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mongo"
	cfg.Period.Year = 1999
	cfg.Report.OutputDir = ""

	err := cfg.Validate("report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be")
	assert.Contains(t, err.Error(), "period.year must lie in 2020..2035")
	assert.Contains(t, err.Error(), "report.output_dir is required")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
