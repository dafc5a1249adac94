package cloud

import (
	"context"

	"github.com/oldmonad/cvmInventory/pkg/config/cloud"
)

// InstanceState is the normalized lifecycle state of a VM instance,
// lowercase regardless of how the provider spells it.
type InstanceState string

const (
	StatePending    InstanceState = "pending"
	StateRunning    InstanceState = "running"
	StateStopped    InstanceState = "stopped"
	StateStarting   InstanceState = "starting"
	StateStopping   InstanceState = "stopping"
	StateRebooting  InstanceState = "rebooting"
	StateTerminated InstanceState = "terminated"
)

// ValidStates lists every lifecycle state an instance-state filter may name.
var ValidStates = []InstanceState{
	StatePending,
	StateRunning,
	StateStopped,
	StateStarting,
	StateStopping,
	StateRebooting,
	StateTerminated,
}

type Instance struct {
	InstanceID       string            `json:"instance_id"`
	InstanceName     string            `json:"instance_name"`
	Region           string            `json:"region"`
	AvailabilityZone string            `json:"availability_zone"`
	ImageID          string            `json:"image_id"`
	InstanceType     string            `json:"instance_type"`
	VpcID            string            `json:"vpc_id"`
	SubnetID         string            `json:"subnet_id"`
	SecurityGroupIDs []string          `json:"security_group_ids"`
	Tags             map[string]string `json:"tags"`
	State            InstanceState     `json:"state"`
	PublicIP         string            `json:"public_ip_address"`
	PrivateIP        string            `json:"private_ip_address"`
	LaunchTime       string            `json:"launch_time"`
}

type Region struct {
	Name        string
	Description string
	State       string
}

// CloudProvider lists instances one region at a time; the caller owns
// fan-out across regions.
type CloudProvider interface {
	FetchInstances(ctx context.Context, cfg cloud.ProviderConfig, region string) ([]Instance, error)
	FetchInstance(ctx context.Context, cfg cloud.ProviderConfig, region, instanceID string) (*Instance, error)
	DescribeRegions(ctx context.Context, cfg cloud.ProviderConfig) ([]Region, error)
}
