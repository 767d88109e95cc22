package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/vietddude/oracle-updater/internal/core/domain"
)

// SSMAPI is the subset of the SSM client used here.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// ParameterStore reads and writes String parameters in AWS SSM.
type ParameterStore struct {
	api SSMAPI
}

// NewParameterStore loads the default AWS config (env, shared files, role) for region.
func NewParameterStore(ctx context.Context, region string) (*ParameterStore, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return NewParameterStoreWithAPI(ssm.NewFromConfig(cfg)), nil
}

func NewParameterStoreWithAPI(api SSMAPI) *ParameterStore {
	return &ParameterStore{api: api}
}

// GetParameter returns the value or domain.ErrParameterNotFound.
func (s *ParameterStore) GetParameter(ctx context.Context, name string) (string, error) {
	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name: aws.String(name),
	})
	if err != nil {
		var notFound *types.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", domain.ErrParameterNotFound
		}
		return "", fmt.Errorf("ssm get parameter %s: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", domain.ErrParameterNotFound
	}
	return *out.Parameter.Value, nil
}

// PutParameter writes value as a String parameter, overwriting any previous value.
func (s *ParameterStore) PutParameter(ctx context.Context, name, value string) error {
	_, err := s.api.PutParameter(ctx, &ssm.PutParameterInput{
		Name:      aws.String(name),
		Value:     aws.String(value),
		Type:      types.ParameterTypeString,
		Overwrite: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("ssm put parameter %s: %w", name, err)
	}
	return nil
}
