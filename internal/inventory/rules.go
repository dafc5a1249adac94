package inventory

import (
	"regexp"

	"github.com/oldmonad/cvmInventory/pkg/cloud"
	"github.com/oldmonad/cvmInventory/pkg/config/settings"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Safe replaces characters an orchestration tool cannot use in group names
// with underscores. Hyphens survive, so region names keep their shape.
func Safe(word string) string {
	return unsafeChars.ReplaceAllString(word, "_")
}

// Membership is one group an instance belongs to. Parents are the direct
// parent groups of Group; they only take effect in nested mode.
type Membership struct {
	Group   string
	Parents []string
}

// Edge is an extra parent/child relation between groups, independent of any
// single host (e.g. the tags umbrella over per-key groups).
type Edge struct {
	Parent string
	Child  string
}

// Rule maps an instance to zero or more group memberships. Rules are
// independent of each other; the builder applies every enabled rule to
// every retained instance.
type Rule interface {
	Name() string
	Classify(inst cloud.Instance) ([]Membership, []Edge)
}

// BuildRules selects the active rule set from the settings toggles.
func BuildRules(gb settings.GroupRules) []Rule {
	var rules []Rule
	if gb.InstanceID {
		rules = append(rules, instanceIDRule{})
	}
	if gb.Region {
		rules = append(rules, regionRule{})
	}
	if gb.AvailabilityZone {
		rules = append(rules, zoneRule{nestUnderRegion: gb.Region})
	}
	if gb.InstanceType {
		rules = append(rules, typeRule{})
	}
	if gb.ImageID {
		rules = append(rules, imageRule{})
	}
	if gb.VpcID {
		rules = append(rules, vpcRule{})
	}
	if gb.SubnetID {
		rules = append(rules, subnetRule{})
	}
	if gb.SecurityGroup {
		rules = append(rules, securityGroupRule{})
	}
	if gb.TagKeys {
		rules = append(rules, tagKeysRule{})
	}
	if gb.TagNone {
		rules = append(rules, tagNoneRule{})
	}
	return rules
}

type instanceIDRule struct{}

func (instanceIDRule) Name() string { return "instance_id" }

func (instanceIDRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.InstanceID == "" {
		return nil, nil
	}
	return []Membership{{Group: Safe(inst.InstanceID), Parents: []string{"instances"}}}, nil
}

type regionRule struct{}

func (regionRule) Name() string { return "region" }

func (regionRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.Region == "" {
		return nil, nil
	}
	return []Membership{{Group: "region_" + Safe(inst.Region), Parents: []string{"regions"}}}, nil
}

type zoneRule struct {
	// nestUnderRegion additionally parents the zone group under its region
	// group, matching the region rule's naming. Only set when region
	// grouping is enabled, so disabling the region rule never leaves
	// region groups behind.
	nestUnderRegion bool
}

func (zoneRule) Name() string { return "availability_zone" }

func (r zoneRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.AvailabilityZone == "" {
		return nil, nil
	}
	parents := []string{"zones"}
	if r.nestUnderRegion && inst.Region != "" {
		parents = append(parents, "region_"+Safe(inst.Region))
	}
	return []Membership{{Group: "zone_" + Safe(inst.AvailabilityZone), Parents: parents}}, nil
}

type typeRule struct{}

func (typeRule) Name() string { return "instance_type" }

func (typeRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.InstanceType == "" {
		return nil, nil
	}
	return []Membership{{Group: Safe("type_" + inst.InstanceType), Parents: []string{"types"}}}, nil
}

type imageRule struct{}

func (imageRule) Name() string { return "image_id" }

func (imageRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.ImageID == "" {
		return nil, nil
	}
	return []Membership{{Group: Safe("image_" + inst.ImageID), Parents: []string{"images"}}}, nil
}

type vpcRule struct{}

func (vpcRule) Name() string { return "vpc_id" }

func (vpcRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.VpcID == "" {
		return nil, nil
	}
	return []Membership{{Group: Safe("vpc_" + inst.VpcID), Parents: []string{"vpcs"}}}, nil
}

type subnetRule struct{}

func (subnetRule) Name() string { return "subnet_id" }

func (subnetRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if inst.SubnetID == "" {
		return nil, nil
	}
	return []Membership{{Group: Safe("subnet_" + inst.SubnetID), Parents: []string{"subnets"}}}, nil
}

type securityGroupRule struct{}

func (securityGroupRule) Name() string { return "security_group" }

func (securityGroupRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	var memberships []Membership
	for _, sg := range inst.SecurityGroupIDs {
		memberships = append(memberships, Membership{
			Group:   Safe("security_group_" + sg),
			Parents: []string{"security_groups"},
		})
	}
	return memberships, nil
}

type tagKeysRule struct{}

func (tagKeysRule) Name() string { return "tag_keys" }

func (tagKeysRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	var memberships []Membership
	var edges []Edge
	for key, value := range inst.Tags {
		keyGroup := Safe("tag_" + key)
		if value == "" {
			memberships = append(memberships, Membership{Group: keyGroup, Parents: []string{"tags"}})
			continue
		}
		group := Safe("tag_" + key + "=" + value)
		memberships = append(memberships, Membership{Group: group, Parents: []string{keyGroup}})
		edges = append(edges, Edge{Parent: "tags", Child: keyGroup})
	}
	return memberships, edges
}

type tagNoneRule struct{}

func (tagNoneRule) Name() string { return "tag_none" }

func (tagNoneRule) Classify(inst cloud.Instance) ([]Membership, []Edge) {
	if len(inst.Tags) > 0 {
		return nil, nil
	}
	return []Membership{{Group: "tag_none", Parents: []string{"tags"}}}, nil
}
