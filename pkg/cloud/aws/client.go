package aws

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsPkgConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/oldmonad/cvmInventory/pkg/cloud"
	config "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	awsConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud/aws"
	"github.com/oldmonad/cvmInventory/pkg/errors"
)

type EC2Client interface {
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error)
}

type AWSProvider struct {
	// NewClient builds a region-scoped API client; replaceable in tests.
	NewClient func(ctx context.Context, cfg config.ProviderConfig, region string) (EC2Client, error)
}

func NewAWSProvider() *AWSProvider {
	return &AWSProvider{NewClient: newSDKClient}
}

func newSDKClient(ctx context.Context, providerCfg config.ProviderConfig, region string) (EC2Client, error) {
	cfgStruct, ok := providerCfg.(*awsConfig.Config)
	if !ok {
		return nil, errors.NewInvalidConfigCredential("unexpected provider config type, want *aws.Config")
	}

	awsCfg, err := awsPkgConfig.LoadDefaultConfig(ctx,
		awsPkgConfig.WithRegion(region),
		awsPkgConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfgStruct.AccessKey,
				cfgStruct.SecretKey,
				cfgStruct.SessionToken,
			),
		),
	)
	if err != nil {
		return nil, errors.NewAuthFailure(string(config.AWS), err)
	}
	return ec2.NewFromConfig(awsCfg), nil
}

func (p *AWSProvider) FetchInstances(ctx context.Context, cfg config.ProviderConfig, region string) ([]cloud.Instance, error) {
	client, err := p.newClient(ctx, cfg, region)
	if err != nil {
		return nil, err
	}

	paginator := ec2.NewDescribeInstancesPaginator(client, &ec2.DescribeInstancesInput{})
	instances := make([]cloud.Instance, 0)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classify(region, err)
		}
		for _, reservation := range page.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, mapInstance(region, instance))
			}
		}
	}

	return instances, nil
}

func (p *AWSProvider) FetchInstance(ctx context.Context, cfg config.ProviderConfig, region, instanceID string) (*cloud.Instance, error) {
	client, err := p.newClient(ctx, cfg, region)
	if err != nil {
		return nil, err
	}

	out, err := client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return nil, classify(region, err)
	}
	for _, reservation := range out.Reservations {
		for _, instance := range reservation.Instances {
			mapped := mapInstance(region, instance)
			return &mapped, nil
		}
	}
	return nil, nil
}

func (p *AWSProvider) DescribeRegions(ctx context.Context, cfg config.ProviderConfig) ([]cloud.Region, error) {
	client, err := p.newClient(ctx, cfg, "us-east-1")
	if err != nil {
		return nil, err
	}

	out, err := client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{})
	if err != nil {
		if isAuthError(err) {
			return nil, errors.NewAuthFailure(string(config.AWS), err)
		}
		return nil, errors.NewDescribeRegions(err)
	}

	regions := make([]cloud.Region, 0, len(out.Regions))
	for _, item := range out.Regions {
		regions = append(regions, cloud.Region{
			Name:  aws.ToString(item.RegionName),
			State: aws.ToString(item.OptInStatus),
		})
	}
	return regions, nil
}

func (p *AWSProvider) newClient(ctx context.Context, cfg config.ProviderConfig, region string) (EC2Client, error) {
	factory := p.NewClient
	if factory == nil {
		factory = newSDKClient
	}
	return factory(ctx, cfg, region)
}

func classify(region string, err error) error {
	if isAuthError(err) {
		return errors.NewAuthFailure(string(config.AWS), err)
	}
	return errors.NewDescribeInstances(region, err)
}

func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UnauthorizedOperation") ||
		strings.Contains(msg, "AuthFailure") ||
		strings.Contains(msg, "InvalidClientTokenId")
}

func mapInstance(region string, in types.Instance) cloud.Instance {
	instance := cloud.Instance{
		InstanceID:       aws.ToString(in.InstanceId),
		Region:           region,
		ImageID:          aws.ToString(in.ImageId),
		InstanceType:     string(in.InstanceType),
		VpcID:            aws.ToString(in.VpcId),
		SubnetID:         aws.ToString(in.SubnetId),
		SecurityGroupIDs: make([]string, 0, len(in.SecurityGroups)),
		Tags:             make(map[string]string),
		PublicIP:         aws.ToString(in.PublicIpAddress),
		PrivateIP:        aws.ToString(in.PrivateIpAddress),
	}

	if in.State != nil {
		instance.State = mapState(in.State.Name)
	}
	if in.Placement != nil {
		instance.AvailabilityZone = aws.ToString(in.Placement.AvailabilityZone)
	}
	if in.LaunchTime != nil {
		instance.LaunchTime = in.LaunchTime.UTC().Format("2006-01-02T15:04:05Z")
	}
	for _, sg := range in.SecurityGroups {
		instance.SecurityGroupIDs = append(instance.SecurityGroupIDs, aws.ToString(sg.GroupId))
	}
	for _, tag := range in.Tags {
		instance.Tags[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
		if aws.ToString(tag.Key) == "Name" {
			instance.InstanceName = aws.ToString(tag.Value)
		}
	}

	return instance
}

// mapState folds EC2 lifecycle names into the normalized state set.
func mapState(name types.InstanceStateName) cloud.InstanceState {
	switch name {
	case types.InstanceStateNamePending:
		return cloud.StatePending
	case types.InstanceStateNameRunning:
		return cloud.StateRunning
	case types.InstanceStateNameStopped:
		return cloud.StateStopped
	case types.InstanceStateNameStopping, types.InstanceStateNameShuttingDown:
		return cloud.StateStopping
	case types.InstanceStateNameTerminated:
		return cloud.StateTerminated
	default:
		return cloud.InstanceState(string(name))
	}
}
