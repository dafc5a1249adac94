package env_test

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	cloudConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/config/env"
	"github.com/oldmonad/cvmInventory/pkg/config/settings"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	m.Run()
}

type MockProviderConfig struct {
	mock.Mock
}

func (m *MockProviderConfig) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockProviderConfig) GetCredentials() interface{} {
	args := m.Called()
	return args.Get(0)
}

type MockProviderConfigFactory struct {
	mock.Mock
}

func (m *MockProviderConfigFactory) NewProviderConfig(provider cloudConfig.ProviderType, creds cloudConfig.FileCredentials) (cloudConfig.ProviderConfig, error) {
	args := m.Called(provider, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cloudConfig.ProviderConfig), args.Error(1)
}

func writeSettingsFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.ini")
	require.NoError(t, os.WriteFile(path, []byte("[inventory]\nregions = ap-guangzhou\n"), 0o644))
	return path
}

func TestLoadGeneralConfig(t *testing.T) {
	tests := []struct {
		name      string
		debug     string
		iniPath   string
		expectErr bool
		check     func(t *testing.T, c *env.Configurations)
	}{
		{
			name:  "defaults",
			debug: "",
			check: func(t *testing.T, c *env.Configurations) {
				assert.False(t, c.DebugMode)
				assert.Equal(t, "inventory.ini", c.SettingsPath)
			},
		},
		{
			name:  "debug on",
			debug: "true",
			check: func(t *testing.T, c *env.Configurations) {
				assert.True(t, c.DebugMode)
			},
		},
		{
			name:    "ini path override",
			iniPath: "/etc/cvm/inventory.ini",
			check: func(t *testing.T, c *env.Configurations) {
				assert.Equal(t, "/etc/cvm/inventory.ini", c.SettingsPath)
			},
		},
		{
			name:      "malformed debug",
			debug:     "maybe",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEBUG", tt.debug)
			t.Setenv("INVENTORY_INI_PATH", tt.iniPath)

			c := env.NewConfiguration()
			err := c.LoadGeneralConfig()
			if tt.expectErr {
				require.Error(t, err)
				var parseErr errors.ErrDebugParse
				assert.True(t, stderrors.As(err, &parseErr))
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestLoadCloudConfig(t *testing.T) {
	mockCfg := new(MockProviderConfig)
	mockCfg.On("Validate").Return(nil)

	factory := new(MockProviderConfigFactory)
	factory.On("NewProviderConfig", cloudConfig.Tencent, mock.Anything).Return(mockCfg, nil)

	c := env.NewConfiguration()
	c.CloudProvider = factory
	c.Settings = &settings.Settings{Provider: cloudConfig.Tencent}

	require.NoError(t, c.LoadCloudConfig())
	assert.Equal(t, mockCfg, c.CloudConfig)
	require.NoError(t, c.ValidateGeneralConfig())
	factory.AssertExpectations(t)
}

func TestLoadCloudConfigFactoryError(t *testing.T) {
	factory := new(MockProviderConfigFactory)
	factory.On("NewProviderConfig", mock.Anything, mock.Anything).
		Return(nil, errors.NewErrMissingCredentials([]string{"TENCENTCLOUD_SECRET_ID"}))

	c := env.NewConfiguration()
	c.CloudProvider = factory
	c.Settings = &settings.Settings{Provider: cloudConfig.Tencent}

	require.Error(t, c.LoadCloudConfig())
	assert.Nil(t, c.CloudConfig)
}

func TestValidateGeneralConfigUninitialized(t *testing.T) {
	c := env.NewConfiguration()
	err := c.ValidateGeneralConfig()
	var notInit errors.ErrCloudConfigNotInit
	require.True(t, stderrors.As(err, &notInit))
}

func TestSetupConfigurations(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("INVENTORY_INI_PATH", writeSettingsFile(t))
	t.Setenv("TENCENTCLOUD_SECRET_ID", "AKIDexample00000000000000000000000000")
	t.Setenv("TENCENTCLOUD_SECRET_KEY", "secretexample000000000000000000000")
	t.Setenv("TENCENTCLOUD_SECURITY_TOKEN", "")

	c, err := env.SetupConfigurations()
	require.NoError(t, err)
	require.NotNil(t, c.Settings)
	assert.Equal(t, []string{"ap-guangzhou"}, c.Settings.Regions)
	require.NotNil(t, c.CloudConfig)
}

func TestSetupConfigurationsMissingSettings(t *testing.T) {
	t.Setenv("DEBUG", "")
	t.Setenv("INVENTORY_INI_PATH", filepath.Join(t.TempDir(), "absent.ini"))

	_, err := env.SetupConfigurations()
	require.Error(t, err)
	var loadErr errors.ErrSettingsLoad
	assert.True(t, stderrors.As(err, &loadErr))
}
