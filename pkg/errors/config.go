package errors

import (
	"fmt"
)

// ErrMissingCredentials is returned when neither the environment nor the
// settings file provides a usable credential pair.
type ErrMissingCredentials struct {
	Missing []string
}

func (e ErrMissingCredentials) Error() string {
	return fmt.Sprintf("missing credentials: %s", e.Missing)
}

func NewErrMissingCredentials(missing []string) error {
	return ErrMissingCredentials{Missing: missing}
}

// ErrUnsupportedProvider is returned when the provider string is unknown.
type ErrUnsupportedProvider struct {
	ProviderType string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.ProviderType)
}

func NewUnsupportedProvider(pt string) error {
	return ErrUnsupportedProvider{ProviderType: pt}
}

// ErrDebugParse wraps failures parsing the DEBUG env var.
type ErrDebugParse struct {
	RawValue string
	Err      error
}

func (e ErrDebugParse) Error() string {
	return fmt.Sprintf("failed to parse DEBUG=%q: %v", e.RawValue, e.Err)
}

func (e ErrDebugParse) Unwrap() error {
	return e.Err
}

func NewErrDebugParse(raw string, err error) error {
	return ErrDebugParse{RawValue: raw, Err: err}
}

// ErrCloudConfigNotInit indicates LoadCloudConfig wasn't called or failed.
type ErrCloudConfigNotInit struct{}

func (e ErrCloudConfigNotInit) Error() string {
	return "cloud configuration not initialized"
}

func NewErrCloudConfigNotInit() error {
	return ErrCloudConfigNotInit{}
}

// ErrInvalidConfigurations wraps validation failures at startup.
type ErrInvalidConfigurations struct {
	Err error
}

func (e ErrInvalidConfigurations) Error() string {
	return fmt.Sprintf("invalid configurations: %v", e.Err)
}

func (e ErrInvalidConfigurations) Unwrap() error {
	return e.Err
}

func NewErrInvalidConfigurations(err error) error {
	return ErrInvalidConfigurations{Err: err}
}

type InvalidConfigCredential struct {
	Err string
}

func (e InvalidConfigCredential) Error() string {
	return fmt.Sprintf("invalid configuration credentials: %v", e.Err)
}

func NewInvalidConfigCredential(err string) error {
	return InvalidConfigCredential{Err: err}
}
