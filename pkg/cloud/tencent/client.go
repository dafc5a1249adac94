package tencent

import (
	"context"
	"strings"

	"github.com/oldmonad/cvmInventory/pkg/cloud"
	config "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	tencentConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud/tencent"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	cvm "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/cvm/v20170312"
)

// pageSize matches the CVM DescribeInstances default page.
const pageSize = 20

// regionsEndpoint is the region whose endpoint answers DescribeRegions.
const regionsEndpoint = "ap-shanghai"

// CVMAPI is the subset of the CVM SDK client this provider calls.
type CVMAPI interface {
	DescribeInstancesWithContext(ctx context.Context, request *cvm.DescribeInstancesRequest) (*cvm.DescribeInstancesResponse, error)
	DescribeRegionsWithContext(ctx context.Context, request *cvm.DescribeRegionsRequest) (*cvm.DescribeRegionsResponse, error)
}

type TencentProvider struct {
	// NewClient builds a region-scoped API client; replaceable in tests.
	NewClient func(cfg config.ProviderConfig, region string) (CVMAPI, error)
}

func NewTencentProvider() *TencentProvider {
	return &TencentProvider{NewClient: newSDKClient}
}

func newSDKClient(providerCfg config.ProviderConfig, region string) (CVMAPI, error) {
	cfg, ok := providerCfg.(*tencentConfig.Config)
	if !ok {
		return nil, errors.NewInvalidConfigCredential("unexpected provider config type, want *tencent.Config")
	}

	cred, ok := cfg.GetCredentials().(common.CredentialIface)
	if !ok {
		return nil, errors.NewInvalidConfigCredential("tencentcloud credentials are not usable")
	}

	return cvm.NewClient(cred, region, profile.NewClientProfile())
}

func (p *TencentProvider) FetchInstances(ctx context.Context, cfg config.ProviderConfig, region string) ([]cloud.Instance, error) {
	client, err := p.newClient(cfg, region)
	if err != nil {
		return nil, err
	}

	instances := make([]cloud.Instance, 0)
	var offset int64
	for {
		request := cvm.NewDescribeInstancesRequest()
		request.Offset = common.Int64Ptr(offset)
		request.Limit = common.Int64Ptr(pageSize)

		response, err := client.DescribeInstancesWithContext(ctx, request)
		if err != nil {
			return nil, classify(region, err)
		}

		set := response.Response.InstanceSet
		for _, item := range set {
			instances = append(instances, mapInstance(region, item))
		}
		if int64(len(set)) < pageSize {
			break
		}
		offset += pageSize
	}

	return instances, nil
}

func (p *TencentProvider) FetchInstance(ctx context.Context, cfg config.ProviderConfig, region, instanceID string) (*cloud.Instance, error) {
	client, err := p.newClient(cfg, region)
	if err != nil {
		return nil, err
	}

	request := cvm.NewDescribeInstancesRequest()
	request.InstanceIds = common.StringPtrs([]string{instanceID})

	response, err := client.DescribeInstancesWithContext(ctx, request)
	if err != nil {
		return nil, classify(region, err)
	}
	if len(response.Response.InstanceSet) == 0 {
		return nil, nil
	}

	instance := mapInstance(region, response.Response.InstanceSet[0])
	return &instance, nil
}

func (p *TencentProvider) DescribeRegions(ctx context.Context, cfg config.ProviderConfig) ([]cloud.Region, error) {
	client, err := p.newClient(cfg, regionsEndpoint)
	if err != nil {
		return nil, err
	}

	response, err := client.DescribeRegionsWithContext(ctx, cvm.NewDescribeRegionsRequest())
	if err != nil {
		if isAuthError(err) {
			return nil, errors.NewAuthFailure(string(config.Tencent), err)
		}
		return nil, errors.NewDescribeRegions(err)
	}

	regions := make([]cloud.Region, 0, len(response.Response.RegionSet))
	for _, item := range response.Response.RegionSet {
		regions = append(regions, cloud.Region{
			Name:        strVal(item.Region),
			Description: strVal(item.RegionName),
			State:       strVal(item.RegionState),
		})
	}
	return regions, nil
}

func (p *TencentProvider) newClient(cfg config.ProviderConfig, region string) (CVMAPI, error) {
	factory := p.NewClient
	if factory == nil {
		factory = newSDKClient
	}
	return factory(cfg, region)
}

func classify(region string, err error) error {
	if isAuthError(err) {
		return errors.NewAuthFailure(string(config.Tencent), err)
	}
	return errors.NewDescribeInstances(region, err)
}

func isAuthError(err error) bool {
	if sdkErr, ok := err.(*sdkerrors.TencentCloudSDKError); ok {
		code := sdkErr.GetCode()
		return strings.HasPrefix(code, "AuthFailure") ||
			strings.HasPrefix(code, "InvalidCredential") ||
			strings.HasPrefix(code, "UnauthorizedOperation")
	}
	return false
}

func mapInstance(region string, in *cvm.Instance) cloud.Instance {
	instance := cloud.Instance{
		InstanceID:       strVal(in.InstanceId),
		InstanceName:     strVal(in.InstanceName),
		Region:           region,
		ImageID:          strVal(in.ImageId),
		InstanceType:     strVal(in.InstanceType),
		SecurityGroupIDs: common.StringValues(in.SecurityGroupIds),
		Tags:             make(map[string]string),
		State:            mapState(strVal(in.InstanceState)),
		LaunchTime:       strVal(in.CreatedTime),
	}

	if in.Placement != nil {
		instance.AvailabilityZone = strVal(in.Placement.Zone)
	}
	if in.VirtualPrivateCloud != nil {
		instance.VpcID = strVal(in.VirtualPrivateCloud.VpcId)
		instance.SubnetID = strVal(in.VirtualPrivateCloud.SubnetId)
	}
	if len(in.PublicIpAddresses) > 0 {
		instance.PublicIP = strVal(in.PublicIpAddresses[0])
	}
	if len(in.PrivateIpAddresses) > 0 {
		instance.PrivateIP = strVal(in.PrivateIpAddresses[0])
	}
	for _, tag := range in.Tags {
		instance.Tags[strVal(tag.Key)] = strVal(tag.Value)
	}

	return instance
}

// mapState folds CVM lifecycle names into the normalized state set.
func mapState(raw string) cloud.InstanceState {
	switch strings.ToUpper(raw) {
	case "PENDING":
		return cloud.StatePending
	case "RUNNING":
		return cloud.StateRunning
	case "STOPPED", "SHUTDOWN":
		return cloud.StateStopped
	case "STARTING":
		return cloud.StateStarting
	case "STOPPING":
		return cloud.StateStopping
	case "REBOOTING":
		return cloud.StateRebooting
	case "TERMINATING", "TERMINATED":
		return cloud.StateTerminated
	default:
		return cloud.InstanceState(strings.ToLower(raw))
	}
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
