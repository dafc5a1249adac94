package aws_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/oldmonad/cvmInventory/pkg/cloud"
	awsProvider "github.com/oldmonad/cvmInventory/pkg/cloud/aws"
	config "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	m.Run()
}

type MockEC2Client struct {
	mock.Mock
}

func (m *MockEC2Client) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	args := m.Called(ctx, params)
	var out *ec2.DescribeInstancesOutput
	if tmp := args.Get(0); tmp != nil {
		out = tmp.(*ec2.DescribeInstancesOutput)
	}
	return out, args.Error(1)
}

func (m *MockEC2Client) DescribeRegions(ctx context.Context, params *ec2.DescribeRegionsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	args := m.Called(ctx, params)
	var out *ec2.DescribeRegionsOutput
	if tmp := args.Get(0); tmp != nil {
		out = tmp.(*ec2.DescribeRegionsOutput)
	}
	return out, args.Error(1)
}

func providerWith(client awsProvider.EC2Client) *awsProvider.AWSProvider {
	return &awsProvider.AWSProvider{
		NewClient: func(ctx context.Context, cfg config.ProviderConfig, region string) (awsProvider.EC2Client, error) {
			return client, nil
		},
	}
}

func ec2Instance(id string) types.Instance {
	launch := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return types.Instance{
		InstanceId:   sdk.String(id),
		ImageId:      sdk.String("ami-0abcd1234"),
		InstanceType: types.InstanceTypeT3Micro,
		State: &types.InstanceState{
			Name: types.InstanceStateNameRunning,
		},
		Placement: &types.Placement{
			AvailabilityZone: sdk.String("us-west-2a"),
		},
		VpcId:            sdk.String("vpc-00aa11bb"),
		SubnetId:         sdk.String("subnet-00aa11bb"),
		PublicIpAddress:  sdk.String("54.0.0.1"),
		PrivateIpAddress: sdk.String("172.31.0.1"),
		LaunchTime:       &launch,
		SecurityGroups: []types.GroupIdentifier{
			{GroupId: sdk.String("sg-0011aabb"), GroupName: sdk.String("default")},
		},
		Tags: []types.Tag{
			{Key: sdk.String("Name"), Value: sdk.String("web-1")},
			{Key: sdk.String("env"), Value: sdk.String("prod")},
		},
	}
}

func instancesOutput(instances ...types.Instance) *ec2.DescribeInstancesOutput {
	return &ec2.DescribeInstancesOutput{
		Reservations: []types.Reservation{{Instances: instances}},
	}
}

func TestFetchInstancesMapsFields(t *testing.T) {
	client := new(MockEC2Client)
	client.On("DescribeInstances", mock.Anything, mock.Anything).
		Return(instancesOutput(ec2Instance("i-0abc123")), nil).Once()

	instances, err := providerWith(client).FetchInstances(context.Background(), nil, "us-west-2")
	require.NoError(t, err)
	require.Len(t, instances, 1)

	got := instances[0]
	assert.Equal(t, "i-0abc123", got.InstanceID)
	assert.Equal(t, "web-1", got.InstanceName)
	assert.Equal(t, "us-west-2", got.Region)
	assert.Equal(t, "us-west-2a", got.AvailabilityZone)
	assert.Equal(t, "ami-0abcd1234", got.ImageID)
	assert.Equal(t, "t3.micro", got.InstanceType)
	assert.Equal(t, "vpc-00aa11bb", got.VpcID)
	assert.Equal(t, "subnet-00aa11bb", got.SubnetID)
	assert.Equal(t, []string{"sg-0011aabb"}, got.SecurityGroupIDs)
	assert.Equal(t, "54.0.0.1", got.PublicIP)
	assert.Equal(t, "172.31.0.1", got.PrivateIP)
	assert.Equal(t, cloud.StateRunning, got.State)
	assert.Equal(t, "2024-05-01T12:00:00Z", got.LaunchTime)
	assert.Equal(t, map[string]string{"Name": "web-1", "env": "prod"}, got.Tags)
}

func TestFetchInstancesPaginates(t *testing.T) {
	client := new(MockEC2Client)
	firstPage := instancesOutput(ec2Instance("i-page1"))
	firstPage.NextToken = sdk.String("token-2")

	client.On("DescribeInstances", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeInstancesInput) bool {
		return in.NextToken == nil
	})).Return(firstPage, nil).Once()
	client.On("DescribeInstances", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeInstancesInput) bool {
		return in.NextToken != nil && *in.NextToken == "token-2"
	})).Return(instancesOutput(ec2Instance("i-page2")), nil).Once()

	instances, err := providerWith(client).FetchInstances(context.Background(), nil, "us-west-2")
	require.NoError(t, err)
	assert.Len(t, instances, 2)
	client.AssertExpectations(t)
}

func TestFetchInstancesFailure(t *testing.T) {
	client := new(MockEC2Client)
	client.On("DescribeInstances", mock.Anything, mock.Anything).
		Return(nil, stderrors.New("api error RequestLimitExceeded"))

	_, err := providerWith(client).FetchInstances(context.Background(), nil, "us-west-2")

	var describe errors.ErrDescribeInstances
	require.True(t, stderrors.As(err, &describe))
	assert.Equal(t, "us-west-2", describe.Region)
}

func TestFetchInstancesAuthFailure(t *testing.T) {
	client := new(MockEC2Client)
	client.On("DescribeInstances", mock.Anything, mock.Anything).
		Return(nil, stderrors.New("api error AuthFailure: credentials invalid"))

	_, err := providerWith(client).FetchInstances(context.Background(), nil, "us-west-2")

	var auth errors.ErrAuthFailure
	require.True(t, stderrors.As(err, &auth))
	assert.Equal(t, "aws", auth.Provider)
}

func TestFetchInstanceByID(t *testing.T) {
	client := new(MockEC2Client)
	client.On("DescribeInstances", mock.Anything, mock.MatchedBy(func(in *ec2.DescribeInstancesInput) bool {
		return len(in.InstanceIds) == 1 && in.InstanceIds[0] == "i-0abc123"
	})).Return(instancesOutput(ec2Instance("i-0abc123")), nil).Once()

	instance, err := providerWith(client).FetchInstance(context.Background(), nil, "us-west-2", "i-0abc123")
	require.NoError(t, err)
	require.NotNil(t, instance)
	assert.Equal(t, "i-0abc123", instance.InstanceID)

	client.On("DescribeInstances", mock.Anything, mock.Anything).
		Return(&ec2.DescribeInstancesOutput{}, nil).Once()
	instance, err = providerWith(client).FetchInstance(context.Background(), nil, "us-west-2", "i-missing")
	require.NoError(t, err)
	assert.Nil(t, instance)
}

func TestDescribeRegions(t *testing.T) {
	client := new(MockEC2Client)
	client.On("DescribeRegions", mock.Anything, mock.Anything).
		Return(&ec2.DescribeRegionsOutput{
			Regions: []types.Region{
				{RegionName: sdk.String("us-west-2"), OptInStatus: sdk.String("opt-in-not-required")},
			},
		}, nil)

	regions, err := providerWith(client).DescribeRegions(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "us-west-2", regions[0].Name)
}
