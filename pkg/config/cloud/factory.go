package cloud

import (
	"github.com/oldmonad/cvmInventory/pkg/config/cloud/aws"
	"github.com/oldmonad/cvmInventory/pkg/config/cloud/tencent"

	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"go.uber.org/zap"
)

type ProviderConfig interface {
	Validate() error
	GetCredentials() interface{}
}

type ProviderType string

const (
	Tencent ProviderType = "tencentcloud"
	AWS     ProviderType = "aws"
)

// FileCredentials is the [credentials] section of the settings file. It is
// only consulted when the corresponding environment variables are unset;
// environment always wins.
type FileCredentials struct {
	SecretID      string
	SecretKey     string
	SecurityToken string
}

func NewProviderConfig(provider ProviderType, fallback FileCredentials) (ProviderConfig, error) {
	switch provider {
	case Tencent:
		cfg := tencent.LoadConfig(fallback.SecretID, fallback.SecretKey, fallback.SecurityToken)
		if err := cfg.Validate(); err != nil {
			logger.Log.Error("tencentcloud configuration validation failed", zap.Error(err))
			return nil, err
		}
		logger.Log.Debug("Loaded tencentcloud configuration",
			zap.String("secret_id", mask(cfg.SecretID)))
		return cfg, nil

	case AWS:
		cfg := aws.LoadConfig()
		if err := cfg.Validate(); err != nil {
			logger.Log.Error("AWS configuration validation failed", zap.Error(err))
			return nil, err
		}
		logger.Log.Debug("Loaded AWS configuration",
			zap.String("access_key", mask(cfg.AccessKey)))
		return cfg, nil

	default:
		return nil, errors.NewUnsupportedProvider(string(provider))
	}
}

func mask(s string) string {
	if len(s) < 4 {
		return "****"
	}
	return s[:4] + "****"
}
