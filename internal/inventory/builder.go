package inventory

import (
	"regexp"

	"github.com/oldmonad/cvmInventory/pkg/cloud"
	"github.com/oldmonad/cvmInventory/pkg/config/settings"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"go.uber.org/zap"
)

// IndexEntry locates an address's instance without loading the full
// document.
type IndexEntry struct {
	Region     string `json:"region"`
	InstanceID string `json:"instance_id"`
}

// Index maps host address to its instance coordinates.
type Index map[string]IndexEntry

// Options hold everything about a build that is not a grouping rule.
type Options struct {
	DestinationVariable string
	AllowedStates       []cloud.InstanceState
	NestedGroups        bool
	PatternInclude      *regexp.Regexp
	PatternExclude      *regexp.Regexp
	CatchAllGroup       string
}

// OptionsFromSettings derives build options; the catch-all group is named
// after the provider.
func OptionsFromSettings(s *settings.Settings) Options {
	return Options{
		DestinationVariable: s.DestinationVariable,
		AllowedStates:       s.InstanceStates,
		NestedGroups:        s.NestedGroups,
		PatternInclude:      s.PatternInclude,
		PatternExclude:      s.PatternExclude,
		CatchAllGroup:       string(s.Provider),
	}
}

type Builder struct {
	rules []Rule
	opts  Options
}

func NewBuilder(rules []Rule, opts Options) *Builder {
	return &Builder{rules: rules, opts: opts}
}

// Build transforms an instance collection into an inventory document and
// its address index. The transformation is deterministic: same instances,
// same rules, same options, same document.
//
// Instances outside the allowed state set are excluded entirely. An
// instance whose selected destination field is empty keeps its place in the
// inventory under its instance id, so it is diagnosable rather than
// silently dropped.
func (b *Builder) Build(instances []cloud.Instance) (*Document, Index) {
	doc := NewDocument()
	index := make(Index)

	for _, inst := range instances {
		if !b.stateAllowed(inst.State) {
			continue
		}

		address := b.resolveAddress(inst)
		if b.opts.PatternInclude != nil && !b.opts.PatternInclude.MatchString(address) {
			continue
		}
		if b.opts.PatternExclude != nil && b.opts.PatternExclude.MatchString(address) {
			continue
		}

		index[address] = IndexEntry{Region: inst.Region, InstanceID: inst.InstanceID}

		for _, rule := range b.rules {
			memberships, edges := rule.Classify(inst)
			for _, m := range memberships {
				doc.AddHost(m.Group, address)
				if b.opts.NestedGroups {
					for _, parent := range m.Parents {
						doc.AddChild(parent, m.Group)
					}
				}
			}
			if b.opts.NestedGroups {
				for _, e := range edges {
					doc.AddChild(e.Parent, e.Child)
				}
			}
		}

		if b.opts.CatchAllGroup != "" {
			doc.AddHost(b.opts.CatchAllGroup, address)
		}

		doc.Hostvars[address] = HostVars(inst, address)
	}

	return doc, index
}

func (b *Builder) stateAllowed(state cloud.InstanceState) bool {
	for _, allowed := range b.opts.AllowedStates {
		if state == allowed {
			return true
		}
	}
	return false
}

// resolveAddress picks the configured destination field, falling back to
// the instance id when that field is empty.
func (b *Builder) resolveAddress(inst cloud.Instance) string {
	var address string
	switch b.opts.DestinationVariable {
	case settings.DestinationPrivateIP:
		address = inst.PrivateIP
	default:
		address = inst.PublicIP
	}
	if address == "" {
		logger.GetLogger().Debug("instance has no destination address, keyed by id",
			zap.String("instance_id", inst.InstanceID),
			zap.String("destination_variable", b.opts.DestinationVariable))
		address = inst.InstanceID
	}
	return address
}

// HostVars flattens an instance into the variable map published under
// _meta.hostvars, snake_cased, with tags as a nested mapping.
func HostVars(inst cloud.Instance, address string) map[string]interface{} {
	tags := inst.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	securityGroups := inst.SecurityGroupIDs
	if securityGroups == nil {
		securityGroups = []string{}
	}
	return map[string]interface{}{
		"id":                 inst.InstanceID,
		"instance_name":      inst.InstanceName,
		"region":             inst.Region,
		"availability_zone":  inst.AvailabilityZone,
		"image_id":           inst.ImageID,
		"instance_type":      inst.InstanceType,
		"vpc_id":             inst.VpcID,
		"subnet_id":          inst.SubnetID,
		"security_group_ids": securityGroups,
		"public_ip_address":  inst.PublicIP,
		"private_ip_address": inst.PrivateIP,
		"status":             string(inst.State),
		"launch_time":        inst.LaunchTime,
		"tags":               tags,
		"ansible_ssh_host":   address,
	}
}
