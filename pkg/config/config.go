package config

// Config represents the top-level configuration for the permctx library.
type Config struct {
	// Policy configures the permission policy flags attached to resolved contexts
	Policy PolicyConfig `yaml:"policy"`

	// Meta configures prefix/suffix meta formatting
	Meta MetaConfig `yaml:"meta"`

	// Cache configures the context lookup caches
	Cache CacheConfig `yaml:"cache"`

	// Static configures the built-in static context calculator
	Static StaticConfig `yaml:"static"`

	// Scripting configures Lua scripted context calculators
	Scripting ScriptingConfig `yaml:"scripting"`

	// Logging configures the logging behavior
	Logging LoggingConfig `yaml:"logging"`
}

// PolicyConfig holds the boolean policy flags consumed when forming a
// Contexts descriptor. The flags are read at descriptor-forming time, so a
// change takes effect without invalidating the context caches.
type PolicyConfig struct {
	// IncludeGlobal determines whether global (non-server-specific) permissions apply
	IncludeGlobal bool `yaml:"include-global"`

	// IncludeGlobalWorld determines whether global (non-world-specific) permissions apply
	IncludeGlobalWorld bool `yaml:"include-global-world"`

	// ApplyGlobalGroups determines whether global (non-server-specific) groups apply
	ApplyGlobalGroups bool `yaml:"apply-global-groups"`

	// ApplyGlobalWorldGroups determines whether global (non-world-specific) groups apply
	ApplyGlobalWorldGroups bool `yaml:"apply-global-world-groups"`
}

// MetaConfig holds the formatting rule lists used when resolving prefix and
// suffix meta stacks.
type MetaConfig struct {
	// PrefixFormatting lists the prefix stack formatting rules, highest priority first
	PrefixFormatting []string `yaml:"prefix-formatting"`

	// SuffixFormatting lists the suffix stack formatting rules, highest priority first
	SuffixFormatting []string `yaml:"suffix-formatting"`
}

// CacheConfig configures the context lookup caches.
type CacheConfig struct {
	// TTLMillis is how long a cached lookup stays valid after it was written.
	// The default of 50ms is roughly one scheduler tick: long enough to
	// collapse the permission checks of a tick into one calculator pass,
	// short enough that context changes are effectively real-time.
	TTLMillis int `yaml:"ttl-millis"`

	// MaxSubjects bounds the number of subjects held in the lookup cache
	MaxSubjects int `yaml:"max-subjects"`
}

// StaticConfig configures the built-in static context calculator.
type StaticConfig struct {
	// Server is the name of this server partition, contributed as server=<name>
	Server string `yaml:"server"`

	// Entries lists additional fixed context entries contributed on every lookup
	Entries map[string]string `yaml:"entries"`
}

// ScriptingConfig configures Lua scripted context calculators.
type ScriptingConfig struct {
	// Paths is a list of directories containing Lua calculator scripts
	Paths []string `yaml:"paths"`

	// Calculators lists Lua function names registered as per-subject calculators
	Calculators []string `yaml:"calculators"`

	// StaticCalculators lists Lua function names registered as static calculators
	StaticCalculators []string `yaml:"static-calculators"`

	// Sandbox restricts script access to the host when true
	Sandbox bool `yaml:"sandbox"`

	// TimeoutMillis bounds the execution time of a single script call
	TimeoutMillis int `yaml:"timeout-millis"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level is the logging level ("debug", "info", "warn", "error")
	Level string `yaml:"level"`

	// Format is the log output format ("text", "json")
	Format string `yaml:"format"`
}

// Default returns the configuration used when a field is absent from the
// loaded file. All policy flags default to on, matching the behaviour of a
// server with no special global/world separation configured.
func Default() Config {
	return Config{
		Policy: PolicyConfig{
			IncludeGlobal:          true,
			IncludeGlobalWorld:     true,
			ApplyGlobalGroups:      true,
			ApplyGlobalWorldGroups: true,
		},
		Meta: MetaConfig{
			PrefixFormatting: []string{"highest"},
			SuffixFormatting: []string{"highest"},
		},
		Cache: CacheConfig{
			TTLMillis:   50,
			MaxSubjects: 1024,
		},
		Static: StaticConfig{
			Server: "global",
		},
		Scripting: ScriptingConfig{
			Sandbox:       true,
			TimeoutMillis: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// IncludeGlobalPerms implements the manager's configuration source.
func (c *Config) IncludeGlobalPerms() bool {
	return c.Policy.IncludeGlobal
}

// IncludeGlobalWorldPerms implements the manager's configuration source.
func (c *Config) IncludeGlobalWorldPerms() bool {
	return c.Policy.IncludeGlobalWorld
}

// ApplyGlobalGroupsFlag implements the manager's configuration source.
func (c *Config) ApplyGlobalGroupsFlag() bool {
	return c.Policy.ApplyGlobalGroups
}

// ApplyGlobalWorldGroupsFlag implements the manager's configuration source.
func (c *Config) ApplyGlobalWorldGroupsFlag() bool {
	return c.Policy.ApplyGlobalWorldGroups
}

// PrefixFormattingRules implements the manager's configuration source.
func (c *Config) PrefixFormattingRules() []string {
	return c.Meta.PrefixFormatting
}

// SuffixFormattingRules implements the manager's configuration source.
func (c *Config) SuffixFormattingRules() []string {
	return c.Meta.SuffixFormatting
}
