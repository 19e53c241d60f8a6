package secrets

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"schutztat/internal/errs"
	"schutztat/internal/ports"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrSecretEmpty    = errors.New("secret has no value")
)

type getSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecrets reads secrets from AWS Secrets Manager. The SDK client is built on
// first use so that installations without AWS credentials never load them.
type AWSSecrets struct {
	region string

	mu  sync.Mutex
	api getSecretValueAPI
}

var _ ports.SecretSource = (*AWSSecrets)(nil)

func NewAWSSecrets(region string) *AWSSecrets {
	return &AWSSecrets{region: strings.TrimSpace(region)}
}

func (s *AWSSecrets) Secret(ctx context.Context, ref string) (string, error) {
	if ctx == nil {
		return "", errors.New("context is required")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("secret ref is required")
	}

	api, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ResourceNotFoundException" {
			return "", errs.Wrapf(ErrSecretNotFound, "get secret %q", ref)
		}
		return "", errs.Wrapf(err, "get secret %q", ref)
	}

	switch {
	case out.SecretString != nil && *out.SecretString != "":
		return strings.TrimSpace(*out.SecretString), nil
	case len(out.SecretBinary) > 0:
		return strings.TrimSpace(string(out.SecretBinary)), nil
	default:
		return "", errs.Wrapf(ErrSecretEmpty, "get secret %q", ref)
	}
}

func (s *AWSSecrets) client(ctx context.Context) (getSecretValueAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		return s.api, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if s.region != "" {
		opts = append(opts, awsconfig.WithRegion(s.region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(err, "load aws config")
	}
	s.api = secretsmanager.NewFromConfig(cfg)
	return s.api, nil
}
