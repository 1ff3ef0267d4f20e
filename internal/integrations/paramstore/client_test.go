package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	out    *ssm.GetParameterOutput
	err    error
	calls  int
	lastIn *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.calls++
	f.lastIn = in
	return f.out, f.err
}

func paramOutput(value string) *ssm.GetParameterOutput {
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: &value},
	}
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestGetParameter_HappyPath(t *testing.T) {
	api := &fakeSSM{out: paramOutput("secret-value")}
	c, err := New(api)
	require.NoError(t, err)

	v, err := c.GetParameter(context.Background(), "/portfolio/auth-token")
	require.NoError(t, err)
	require.Equal(t, "secret-value", v)
	require.Equal(t, "/portfolio/auth-token", *api.lastIn.Name)
	require.True(t, *api.lastIn.WithDecryption)
}

func TestGetParameter_CachesSuccessfulLookups(t *testing.T) {
	api := &fakeSSM{out: paramOutput("secret-value")}
	c, err := New(api)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		v, err := c.GetParameter(context.Background(), "/portfolio/auth-token")
		require.NoError(t, err)
		require.Equal(t, "secret-value", v)
	}
	require.Equal(t, 1, api.calls)
}

func TestGetParameter_DoesNotCacheFailures(t *testing.T) {
	api := &fakeSSM{err: errors.New("throttled")}
	c, err := New(api)
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "/portfolio/auth-token")
	require.Error(t, err)

	api.err = nil
	api.out = paramOutput("secret-value")
	v, err := c.GetParameter(context.Background(), "/portfolio/auth-token")
	require.NoError(t, err)
	require.Equal(t, "secret-value", v)
}

func TestGetParameter_EmptyName(t *testing.T) {
	c, err := New(&fakeSSM{})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "  ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "name is required")
}

func TestGetParameter_MissingValue(t *testing.T) {
	c, err := New(&fakeSSM{out: &ssm.GetParameterOutput{}})
	require.NoError(t, err)

	_, err = c.GetParameter(context.Background(), "/portfolio/auth-token")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing value")
}
