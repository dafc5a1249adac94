package tencent

import (
	"os"

	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"go.uber.org/zap"
)

type Config struct {
	SecretID      string
	SecretKey     string
	SecurityToken string
}

// LoadConfig resolves credentials from the environment, falling back to the
// settings-file values only for variables the environment leaves unset.
func LoadConfig(fileSecretID, fileSecretKey, fileToken string) *Config {
	cfg := &Config{
		SecretID:      os.Getenv("TENCENTCLOUD_SECRET_ID"),
		SecretKey:     os.Getenv("TENCENTCLOUD_SECRET_KEY"),
		SecurityToken: os.Getenv("TENCENTCLOUD_SECURITY_TOKEN"),
	}
	if cfg.SecretID == "" {
		cfg.SecretID = fileSecretID
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = fileSecretKey
	}
	if cfg.SecurityToken == "" {
		cfg.SecurityToken = fileToken
	}
	return cfg
}

func (c *Config) Validate() error {
	var missing []string
	if c.SecretID == "" {
		missing = append(missing, "TENCENTCLOUD_SECRET_ID")
	}
	if c.SecretKey == "" {
		missing = append(missing, "TENCENTCLOUD_SECRET_KEY")
	}

	// SecurityToken is only required for temporary credentials.
	if len(missing) > 0 {
		logger.Log.Error("tencentcloud config validation failed", zap.Strings("missing", missing))
		return errors.NewErrMissingCredentials(missing)
	}
	return nil
}

func (c *Config) GetCredentials() interface{} {
	if c.SecurityToken != "" {
		return common.NewTokenCredential(c.SecretID, c.SecretKey, c.SecurityToken)
	}
	return common.NewCredential(c.SecretID, c.SecretKey)
}
