package env

import (
	"os"
	"strconv"

	cloudConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/config/settings"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"go.uber.org/zap"
)

const defaultSettingsPath = "inventory.ini"

type Configurations struct {
	DebugMode     bool
	SettingsPath  string
	Settings      *settings.Settings
	CloudConfig   cloudConfig.ProviderConfig
	CloudProvider CloudConfigProvider
	SettingsLoad  func(path string) (*settings.Settings, error)
}

// CloudConfigProvider builds provider credential configs; injectable for tests.
type CloudConfigProvider interface {
	NewProviderConfig(cloudConfig.ProviderType, cloudConfig.FileCredentials) (cloudConfig.ProviderConfig, error)
}

type DefaultCloudProvider struct{}

func (d *DefaultCloudProvider) NewProviderConfig(p cloudConfig.ProviderType, creds cloudConfig.FileCredentials) (cloudConfig.ProviderConfig, error) {
	return cloudConfig.NewProviderConfig(p, creds)
}

func NewConfiguration() *Configurations {
	return &Configurations{
		CloudProvider: &DefaultCloudProvider{},
		SettingsLoad:  settings.Load,
	}
}

func (c *Configurations) LoadGeneralConfig() error {
	if rawDebug := os.Getenv("DEBUG"); rawDebug != "" {
		mode, err := strconv.ParseBool(rawDebug)
		if err != nil {
			logger.GetLogger().Error("failed to set up configuration", zap.Error(err))
			return errors.NewErrDebugParse(rawDebug, err)
		}
		c.DebugMode = mode
	}

	c.SettingsPath = os.Getenv("INVENTORY_INI_PATH")
	if c.SettingsPath == "" {
		c.SettingsPath = defaultSettingsPath
	}

	return nil
}

func (c *Configurations) LoadSettings() error {
	s, err := c.SettingsLoad(c.SettingsPath)
	if err != nil {
		logger.GetLogger().Error("failed to load settings file",
			zap.String("path", c.SettingsPath), zap.Error(err))
		return err
	}
	c.Settings = s
	return nil
}

func (c *Configurations) LoadCloudConfig() error {
	cloudCfg, err := c.CloudProvider.NewProviderConfig(c.Settings.Provider, c.Settings.Credentials)
	if err != nil {
		return err
	}
	c.CloudConfig = cloudCfg
	return nil
}

func (c *Configurations) ValidateGeneralConfig() error {
	if c.CloudConfig == nil {
		return errors.NewErrCloudConfigNotInit()
	}
	if err := c.CloudConfig.Validate(); err != nil {
		return errors.NewErrInvalidConfigurations(err)
	}
	return nil
}

func (c *Configurations) InitiateLogger() {
	logger.Init(c.DebugMode)
}

func SetupConfigurations() (*Configurations, error) {
	configurations := NewConfiguration()

	if err := configurations.LoadGeneralConfig(); err != nil {
		return nil, err
	}

	configurations.InitiateLogger()

	if err := configurations.LoadSettings(); err != nil {
		return nil, err
	}

	if err := configurations.LoadCloudConfig(); err != nil {
		return nil, err
	}

	if err := configurations.ValidateGeneralConfig(); err != nil {
		return nil, err
	}

	return configurations, nil
}
