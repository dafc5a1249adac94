package errors

import "fmt"

// ErrSettingsLoad wraps failures reading or parsing the settings file.
type ErrSettingsLoad struct {
	Path string
	Err  error
}

func (e ErrSettingsLoad) Error() string {
	return fmt.Sprintf("failed to load settings file %s: %v", e.Path, e.Err)
}

func (e ErrSettingsLoad) Unwrap() error {
	return e.Err
}

func NewSettingsLoad(path string, err error) error {
	return ErrSettingsLoad{Path: path, Err: err}
}

// ErrInvalidOption reports a malformed value in the settings file.
type ErrInvalidOption struct {
	Key    string
	Value  string
	Reason string
}

func (e ErrInvalidOption) Error() string {
	return fmt.Sprintf("invalid option %s=%q: %s", e.Key, e.Value, e.Reason)
}

func NewInvalidOption(key, value, reason string) error {
	return ErrInvalidOption{Key: key, Value: value, Reason: reason}
}

// ErrInvalidState reports an unknown lifecycle state in instance_states.
type ErrInvalidState struct {
	State string
}

func (e ErrInvalidState) Error() string {
	return fmt.Sprintf("unknown instance state %q", e.State)
}

func NewInvalidState(state string) error {
	return ErrInvalidState{State: state}
}

// ErrInvalidPattern wraps a pattern_include/pattern_exclude compile failure.
type ErrInvalidPattern struct {
	Key string
	Err error
}

func (e ErrInvalidPattern) Error() string {
	return fmt.Sprintf("invalid %s pattern: %v", e.Key, e.Err)
}

func (e ErrInvalidPattern) Unwrap() error {
	return e.Err
}

func NewInvalidPattern(key string, err error) error {
	return ErrInvalidPattern{Key: key, Err: err}
}
