package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapdest/pkg/core"
)

// EnvPrefix prefixes every environment variable read by the loader.
// A double underscore separates nested keys: LEAPDEST_TARGET__DATABASE.
const EnvPrefix = "LEAPDEST_"

// configFileNames are searched in the working directory when no --config is given.
var configFileNames = []string{"leapdest.yaml", "leapdest.yml"}

// flagKeys maps flag names whose config key differs from the snake_case form.
var flagKeys = map[string]string{
	"database":    "target.database",
	"target-type": "target.type",
	"journal":     "journal_path",
}

// Loader loads configuration. The zero value is not usable; call NewLoader.
type Loader struct {
	k        *koanf.Koanf
	fileUsed string
	dir      string
}

// NewLoader creates a loader that searches dir for a config file.
func NewLoader(dir string) *Loader {
	return &Loader{k: koanf.New("."), dir: dir}
}

// FileUsed returns the path to the config file that was loaded, if any.
func (l *Loader) FileUsed() string {
	return l.fileUsed
}

func (l *Loader) findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range configFileNames {
		candidate := filepath.Join(l.dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func (l *Loader) Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	l.k = koanf.New(".")

	def := Default()
	if err := l.k.Load(confmap.Provider(map[string]any{
		"target.type":     def.Target.Type,
		"target.database": def.Target.Database,
		"journal_path":    def.JournalPath,
		"log_level":       def.LogLevel,
		"log_format":      def.LogFormat,
		"output":          def.OutputFormat,
		"verbose":         false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	l.fileUsed = l.findConfigFile(cfgFile)
	if l.fileUsed != "" {
		if err := l.k.Load(file.Provider(l.fileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", l.fileUsed, err)
		}
	}

	// LEAPDEST_LOG_LEVEL -> log_level, LEAPDEST_TARGET__TYPE -> target.type
	if err := l.k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := l.k.Load(posflag.ProviderWithFlag(flags, ".", l.k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			if key, ok := flagKeys[f.Name]; ok {
				return key, posflag.FlagVal(flags, f)
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{Type: DefaultTargetType, Database: DefaultDatabase}
	}
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)

	if cfg.DefaultSchema == "" {
		cfg.DefaultSchema = cfg.Target.Schema
	}
	if cfg.DefaultSchema == "" {
		cfg.DefaultSchema = def.DefaultSchema
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *core.TargetConfig) {
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
	for k, v := range t.Options {
		t.Options[k] = expandEnvVars(v)
	}
}
