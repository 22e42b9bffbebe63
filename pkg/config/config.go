// Invocation options and environment settings for an integration run.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultOutputDir = "./integratedGeneFamilies_dir"
	DefaultHome      = "."

	EnvHome      = "GGINTEGRATE_HOME"
	EnvOutputDir = "GGINTEGRATE_OUTPUT_DIR"
	EnvWorkers   = "GGINTEGRATE_WORKERS"
	EnvManifest  = "GGINTEGRATE_MANIFEST"
	EnvLogLevel  = "GGINTEGRATE_LOG_LEVEL"

	ScaffoldPattern = `^\d+Gv\d+\.\d+$`
	MethodPattern   = `^\w+$`
)

var (
	scaffoldRe = regexp.MustCompile(ScaffoldPattern)
	methodRe   = regexp.MustCompile(MethodPattern)
)

// ConfigError is returned for anything wrong with the invocation itself.
// The command line prints usage when it sees one.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration error: %s", e.Msg)
}

// Options are the three required command line values.
type Options struct {
	OrthogroupFasta string
	Scaffold        string
	Method          string
}

// Settings come from the environment (optionally seeded by a .env file).
type Settings struct {
	Home      string
	OutputDir string
	Workers   int
	Manifest  string
	LogLevel  string

	// Names of variables that fell back to their default.
	Defaulted []string
}

// Config is a fully resolved and validated run configuration.
type Config struct {
	OrthogroupFasta string
	ScaffoldName    string
	ScaffoldDir     string
	Method          string
	OutputDir       string
	Workers         int
	Manifest        string
}

// LoadSettings reads the GGINTEGRATE_* variables through getenv.
func LoadSettings(getenv func(string) string) (Settings, error) {
	s := Settings{
		Home:      getenv(EnvHome),
		OutputDir: getenv(EnvOutputDir),
		Manifest:  getenv(EnvManifest),
		LogLevel:  getenv(EnvLogLevel),
		Workers:   1,
	}

	if s.Home == "" {
		s.Home = DefaultHome
		s.Defaulted = append(s.Defaulted, EnvHome)
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
		s.Defaulted = append(s.Defaulted, EnvOutputDir)
	}

	if raw := strings.TrimSpace(getenv(EnvWorkers)); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return s, &ConfigError{Msg: fmt.Sprintf("%s must be a positive integer, got %q", EnvWorkers, raw)}
		}
		s.Workers = n
	}

	return s, nil
}

// LoadSettingsFromEnv is LoadSettings over the process environment.
func LoadSettingsFromEnv() (Settings, error) {
	return LoadSettings(os.Getenv)
}

// ResolveScaffold turns the --scaffold value into a directory and a name.
// An absolute value is used as is and named by its last path element;
// anything else is looked up under <home>/data.
func ResolveScaffold(home, scaffold string) (dir string, name string) {
	if filepath.IsAbs(scaffold) {
		dir = filepath.Clean(scaffold)
		return dir, filepath.Base(dir)
	}
	return filepath.Join(home, "data", scaffold), scaffold
}

func ValidateScaffoldName(name string) error {
	if !scaffoldRe.MatchString(name) {
		return &ConfigError{Msg: fmt.Sprintf("scaffold name %q is not in the expected format %s (e.g. 22Gv1.1)", name, ScaffoldPattern)}
	}
	return nil
}

func ValidateMethod(method string) error {
	if !methodRe.MatchString(method) {
		return &ConfigError{Msg: fmt.Sprintf("method %q is not in the expected format %s", method, MethodPattern)}
	}
	return nil
}

// Resolve checks the options in order and combines them with settings.
func Resolve(opts Options, s Settings) (*Config, error) {
	var missing []string
	if opts.OrthogroupFasta == "" {
		missing = append(missing, "--orthogroup_fasta")
	}
	if opts.Scaffold == "" {
		missing = append(missing, "--scaffold")
	}
	if opts.Method == "" {
		missing = append(missing, "--method")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Msg: "missing required option(s): " + strings.Join(missing, ", ")}
	}

	dir, name := ResolveScaffold(s.Home, opts.Scaffold)
	if err := ValidateScaffoldName(name); err != nil {
		return nil, err
	}
	if err := ValidateMethod(opts.Method); err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	outputDir := s.OutputDir
	if outputDir == "" {
		outputDir = DefaultOutputDir
	}

	return &Config{
		OrthogroupFasta: opts.OrthogroupFasta,
		ScaffoldName:    name,
		ScaffoldDir:     dir,
		Method:          opts.Method,
		OutputDir:       outputDir,
		Workers:         workers,
		Manifest:        s.Manifest,
	}, nil
}
