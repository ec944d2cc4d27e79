package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromBytes_Defaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(``))
	require.NoError(t, err)

	assert.True(t, cfg.Policy.IncludeGlobal)
	assert.True(t, cfg.Policy.IncludeGlobalWorld)
	assert.True(t, cfg.Policy.ApplyGlobalGroups)
	assert.True(t, cfg.Policy.ApplyGlobalWorldGroups)
	assert.Equal(t, 50, cfg.Cache.TTLMillis)
	assert.Equal(t, 1024, cfg.Cache.MaxSubjects)
	assert.Equal(t, "global", cfg.Static.Server)
	assert.Equal(t, []string{"highest"}, cfg.Meta.PrefixFormatting)
	assert.Equal(t, []string{"highest"}, cfg.Meta.SuffixFormatting)
}

func TestLoadFromBytes_PartialOverride(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
policy:
  include-global: false
static:
  server: factions
  entries:
    region: spawn
cache:
  ttl-millis: 100
`))
	require.NoError(t, err)

	// Explicitly set fields win
	assert.False(t, cfg.Policy.IncludeGlobal)
	assert.Equal(t, "factions", cfg.Static.Server)
	assert.Equal(t, map[string]string{"region": "spawn"}, cfg.Static.Entries)
	assert.Equal(t, 100, cfg.Cache.TTLMillis)

	// Unmentioned fields keep their defaults
	assert.True(t, cfg.Policy.IncludeGlobalWorld)
	assert.Equal(t, 1024, cfg.Cache.MaxSubjects)
}

func TestLoadFromBytes_Invalid(t *testing.T) {
	_, err := LoadFromBytes([]byte(`static: [not, a, mapping]`))
	assert.Error(t, err)

	_, err = LoadFromBytes([]byte("static:\n  server: \"  \"\n"))
	assert.Error(t, err)

	_, err = LoadFromBytes([]byte("static:\n  entries:\n    region: \"\"\n"))
	assert.Error(t, err)

	_, err = LoadFromBytes([]byte("logging:\n  level: loud\n"))
	assert.Error(t, err)
}

func TestLoadFromBytes_Scripting(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(``))
	require.NoError(t, err)
	assert.True(t, cfg.Scripting.Sandbox)
	assert.Equal(t, 1000, cfg.Scripting.TimeoutMillis)

	cfg, err = LoadFromBytes([]byte(`
scripting:
  paths: ["./scripts"]
  calculators: ["gamemode"]
  static-calculators: ["maintenance"]
  sandbox: false
  timeout-millis: 250
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"./scripts"}, cfg.Scripting.Paths)
	assert.Equal(t, []string{"gamemode"}, cfg.Scripting.Calculators)
	assert.Equal(t, []string{"maintenance"}, cfg.Scripting.StaticCalculators)
	assert.False(t, cfg.Scripting.Sandbox)
	assert.Equal(t, 250, cfg.Scripting.TimeoutMillis)

	_, err = LoadFromBytes([]byte("scripting:\n  calculators: [\"  \"]\n"))
	assert.Error(t, err)
}

func TestLoadFromBytes_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PERMCTX_SERVER", "env-server")
	t.Setenv("PERMCTX_CACHE_TTL_MS", "75")
	t.Setenv("PERMCTX_LOG_LEVEL", "debug")

	cfg, err := LoadFromBytes([]byte(`
static:
  server: file-server
`))
	require.NoError(t, err)

	assert.Equal(t, "env-server", cfg.Static.Server)
	assert.Equal(t, 75, cfg.Cache.TTLMillis)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestConfig_SourceAccessors(t *testing.T) {
	cfg, err := LoadFromBytes([]byte(`
policy:
  include-global-world: false
  apply-global-world-groups: false
meta:
  prefix-formatting: ["highest", "highest_own"]
`))
	require.NoError(t, err)

	assert.True(t, cfg.IncludeGlobalPerms())
	assert.False(t, cfg.IncludeGlobalWorldPerms())
	assert.True(t, cfg.ApplyGlobalGroupsFlag())
	assert.False(t, cfg.ApplyGlobalWorldGroupsFlag())
	assert.Equal(t, []string{"highest", "highest_own"}, cfg.PrefixFormattingRules())
	assert.Equal(t, []string{"highest"}, cfg.SuffixFormattingRules())
}
