package settings_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/oldmonad/cvmInventory/pkg/cloud"
	cloudConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/config/settings"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	m.Run()
}

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeSettings(t, "")

	s, err := settings.Load(path)
	require.NoError(t, err)

	assert.Equal(t, cloudConfig.Tencent, s.Provider)
	assert.True(t, s.AllRegions())
	assert.Equal(t, settings.DestinationPublicIP, s.DestinationVariable)
	assert.Equal(t, []cloud.InstanceState{cloud.StateRunning}, s.InstanceStates)
	assert.False(t, s.NestedGroups)
	assert.Equal(t, 300*time.Second, s.CacheMaxAge)
	assert.True(t, s.GroupBy.Region)
	assert.True(t, s.GroupBy.TagKeys)
	assert.True(t, s.GroupBy.TagNone)
	assert.Nil(t, s.PatternInclude)
}

func TestLoadFullFile(t *testing.T) {
	path := writeSettings(t, `
[credentials]
secret_id = file-id
secret_key = file-key

[inventory]
provider = tencentcloud
regions = ap-guangzhou, ap-shanghai
regions_exclude = ap-shanghai
destination_variable = private_ip_address
instance_states = running, stopped
nested_groups = true
cache_max_age = 60
group_by_tag_keys = false
pattern_include = ^10\.
`)

	s, err := settings.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-id", s.Credentials.SecretID)
	assert.Equal(t, []string{"ap-guangzhou", "ap-shanghai"}, s.Regions)
	assert.Equal(t, []string{"ap-guangzhou"}, s.EffectiveRegions(s.Regions))
	assert.Equal(t, settings.DestinationPrivateIP, s.DestinationVariable)
	assert.ElementsMatch(t, []cloud.InstanceState{cloud.StateRunning, cloud.StateStopped}, s.InstanceStates)
	assert.True(t, s.NestedGroups)
	assert.Equal(t, time.Minute, s.CacheMaxAge)
	assert.False(t, s.GroupBy.TagKeys)
	assert.True(t, s.GroupBy.Region)
	require.NotNil(t, s.PatternInclude)
	assert.True(t, s.PatternInclude.MatchString("10.0.0.1"))
}

func TestLoadRegionsAll(t *testing.T) {
	path := writeSettings(t, "[inventory]\nregions = all\n")
	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.True(t, s.AllRegions())
}

func TestLoadAllInstances(t *testing.T) {
	path := writeSettings(t, "[inventory]\nall_instances = true\ninstance_states = running\n")
	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, cloud.ValidStates, s.InstanceStates)
}

func TestLoadInstanceStatesCaseInsensitive(t *testing.T) {
	path := writeSettings(t, "[inventory]\ninstance_states = RUNNING, Stopped\n")
	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []cloud.InstanceState{cloud.StateRunning, cloud.StateStopped}, s.InstanceStates)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, err error)
	}{
		{"unknown provider", "[inventory]\nprovider = azure\n", func(t *testing.T, err error) {
			assert.IsType(t, errors.ErrUnsupportedProvider{}, err)
		}},
		{"bad destination", "[inventory]\ndestination_variable = hostname\n", func(t *testing.T, err error) {
			assert.IsType(t, errors.ErrInvalidOption{}, err)
		}},
		{"unknown state", "[inventory]\ninstance_states = hibernating\n", func(t *testing.T, err error) {
			assert.IsType(t, errors.ErrInvalidState{}, err)
		}},
		{"bad boolean", "[inventory]\nnested_groups = yep\n", func(t *testing.T, err error) {
			assert.IsType(t, errors.ErrInvalidOption{}, err)
		}},
		{"bad rule toggle", "[inventory]\ngroup_by_region = 7up\n", func(t *testing.T, err error) {
			assert.IsType(t, errors.ErrInvalidOption{}, err)
		}},
		{"bad max age", "[inventory]\ncache_max_age = soon\n", nil},
		{"negative max age", "[inventory]\ncache_max_age = -1\n", nil},
		{"bad include pattern", "[inventory]\npattern_include = [\n", func(t *testing.T, err error) {
			assert.IsType(t, errors.ErrInvalidPattern{}, err)
		}},
		{"bad exclude pattern", "[inventory]\npattern_exclude = (\n", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeSettings(t, tt.content)
			_, err := settings.Load(path)
			require.Error(t, err)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := settings.Load(filepath.Join(t.TempDir(), "nope.ini"))
	require.Error(t, err)
}

func TestEffectiveRegionsNoExclusions(t *testing.T) {
	path := writeSettings(t, "[inventory]\nregions = ap-guangzhou\n")
	s, err := settings.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ap-guangzhou"}, s.EffectiveRegions(s.Regions))
}
