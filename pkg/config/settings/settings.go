package settings

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/oldmonad/cvmInventory/pkg/cloud"
	cloudConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"gopkg.in/ini.v1"
)

const (
	DestinationPublicIP  = "public_ip_address"
	DestinationPrivateIP = "private_ip_address"

	defaultCacheMaxAge = 300 * time.Second
)

// GroupRules holds one toggle per grouping rule, all enabled by default.
type GroupRules struct {
	InstanceID       bool
	Region           bool
	AvailabilityZone bool
	InstanceType     bool
	ImageID          bool
	VpcID            bool
	SubnetID         bool
	SecurityGroup    bool
	TagKeys          bool
	TagNone          bool
}

// Settings is the parsed [inventory] and [credentials] configuration.
type Settings struct {
	Provider            cloudConfig.ProviderType
	Regions             []string // empty means all regions
	RegionsExclude      []string
	DestinationVariable string
	InstanceStates      []cloud.InstanceState
	NestedGroups        bool
	CachePath           string
	CacheMaxAge         time.Duration
	PatternInclude      *regexp.Regexp
	PatternExclude      *regexp.Regexp
	GroupBy             GroupRules
	Credentials         cloudConfig.FileCredentials
}

// Load reads and validates the settings file. Every malformed value is
// fatal here, before any API call is attempted.
func Load(path string) (*Settings, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, errors.NewSettingsLoad(path, err)
	}

	s := &Settings{
		Provider:            cloudConfig.Tencent,
		DestinationVariable: DestinationPublicIP,
		CacheMaxAge:         defaultCacheMaxAge,
	}

	inv := file.Section("inventory")
	creds := file.Section("credentials")

	s.Credentials = cloudConfig.FileCredentials{
		SecretID:      creds.Key("secret_id").String(),
		SecretKey:     creds.Key("secret_key").String(),
		SecurityToken: creds.Key("security_token").String(),
	}

	if v := inv.Key("provider").String(); v != "" {
		switch cloudConfig.ProviderType(v) {
		case cloudConfig.Tencent, cloudConfig.AWS:
			s.Provider = cloudConfig.ProviderType(v)
		default:
			return nil, errors.NewUnsupportedProvider(v)
		}
	}

	if v := inv.Key("regions").String(); v != "" && v != "all" {
		s.Regions = splitCSV(v)
	}
	s.RegionsExclude = splitCSV(inv.Key("regions_exclude").String())

	if v := inv.Key("destination_variable").String(); v != "" {
		if v != DestinationPublicIP && v != DestinationPrivateIP {
			return nil, errors.NewInvalidOption("destination_variable", v,
				"must be public_ip_address or private_ip_address")
		}
		s.DestinationVariable = v
	}

	states, err := parseStates(inv)
	if err != nil {
		return nil, err
	}
	s.InstanceStates = states

	if s.NestedGroups, err = boolKey(inv, "nested_groups", false); err != nil {
		return nil, err
	}

	cachePath := inv.Key("cache_path").String()
	if cachePath == "" {
		cachePath = "~/.cvm-inventory"
	}
	if s.CachePath, err = expandHome(cachePath); err != nil {
		return nil, errors.NewInvalidOption("cache_path", cachePath, err.Error())
	}

	if raw := inv.Key("cache_max_age").String(); raw != "" {
		secs, err := inv.Key("cache_max_age").Int64()
		if err != nil || secs < 0 {
			return nil, errors.NewInvalidOption("cache_max_age", raw, "must be a non-negative number of seconds")
		}
		s.CacheMaxAge = time.Duration(secs) * time.Second
	}

	if raw := inv.Key("pattern_include").String(); raw != "" {
		if s.PatternInclude, err = regexp.Compile(raw); err != nil {
			return nil, errors.NewInvalidPattern("pattern_include", err)
		}
	}
	if raw := inv.Key("pattern_exclude").String(); raw != "" {
		if s.PatternExclude, err = regexp.Compile(raw); err != nil {
			return nil, errors.NewInvalidPattern("pattern_exclude", err)
		}
	}

	if err := parseGroupBy(inv, &s.GroupBy); err != nil {
		return nil, err
	}

	return s, nil
}

// AllRegions reports whether the region list must come from the API.
func (s *Settings) AllRegions() bool {
	return len(s.Regions) == 0
}

// EffectiveRegions applies the exclusion list to a resolved region set.
func (s *Settings) EffectiveRegions(resolved []string) []string {
	if len(s.RegionsExclude) == 0 {
		return resolved
	}
	excluded := make(map[string]bool, len(s.RegionsExclude))
	for _, r := range s.RegionsExclude {
		excluded[r] = true
	}
	out := make([]string, 0, len(resolved))
	for _, r := range resolved {
		if !excluded[r] {
			out = append(out, r)
		}
	}
	return out
}

func parseStates(inv *ini.Section) ([]cloud.InstanceState, error) {
	allInstances, err := boolKey(inv, "all_instances", false)
	if err != nil {
		return nil, err
	}
	if allInstances {
		return append([]cloud.InstanceState(nil), cloud.ValidStates...), nil
	}

	raw := inv.Key("instance_states").String()
	if raw == "" {
		return []cloud.InstanceState{cloud.StateRunning}, nil
	}

	var states []cloud.InstanceState
	for _, part := range splitCSV(raw) {
		state := cloud.InstanceState(strings.ToLower(part))
		if !validState(state) {
			return nil, errors.NewInvalidState(part)
		}
		states = append(states, state)
	}
	return states, nil
}

func parseGroupBy(inv *ini.Section, rules *GroupRules) error {
	toggles := []struct {
		key    string
		target *bool
	}{
		{"group_by_instance_id", &rules.InstanceID},
		{"group_by_region", &rules.Region},
		{"group_by_availability_zone", &rules.AvailabilityZone},
		{"group_by_instance_type", &rules.InstanceType},
		{"group_by_image_id", &rules.ImageID},
		{"group_by_vpc_id", &rules.VpcID},
		{"group_by_subnet_id", &rules.SubnetID},
		{"group_by_security_group", &rules.SecurityGroup},
		{"group_by_tag_keys", &rules.TagKeys},
		{"group_by_tag_none", &rules.TagNone},
	}
	for _, t := range toggles {
		v, err := boolKey(inv, t.key, true)
		if err != nil {
			return err
		}
		*t.target = v
	}
	return nil
}

func boolKey(sec *ini.Section, name string, def bool) (bool, error) {
	raw := sec.Key(name).String()
	if raw == "" {
		return def, nil
	}
	v, err := sec.Key(name).Bool()
	if err != nil {
		return false, errors.NewInvalidOption(name, raw, "must be a boolean")
	}
	return v, nil
}

func validState(s cloud.InstanceState) bool {
	for _, valid := range cloud.ValidStates {
		if s == valid {
			return true
		}
	}
	return false
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
