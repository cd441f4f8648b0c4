// Package secrets resolves credential references into plaintext values so
// deployments can mount secrets instead of inlining them in the environment.
//
// A value is treated as a reference when it carries one of three schemes:
//
//	file:///run/secrets/db_password   read the file, trailing newline trimmed
//	env://OTHER_VAR                   read another environment variable
//	aws-sm://my-secret-id             AWS Secrets Manager GetSecretValue
//
// Anything else passes through untouched, so plain literal credentials keep
// working.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	filePrefix = "file://"
	envPrefix  = "env://"
	awsPrefix  = "aws-sm://"
)

// SecretsManagerAPI is the slice of the AWS client the resolver needs.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Resolver struct {
	sm        SecretsManagerAPI
	newClient func(ctx context.Context) (SecretsManagerAPI, error)
}

func NewResolver() *Resolver {
	return &Resolver{
		newClient: func(ctx context.Context) (SecretsManagerAPI, error) {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to load AWS config: %w", err)
			}
			return secretsmanager.NewFromConfig(cfg), nil
		},
	}
}

// NewResolverWithClient injects a Secrets Manager client, used by tests.
func NewResolverWithClient(sm SecretsManagerAPI) *Resolver {
	return &Resolver{sm: sm}
}

// IsReference reports whether v would be resolved rather than passed through.
func IsReference(v string) bool {
	return strings.HasPrefix(v, filePrefix) ||
		strings.HasPrefix(v, envPrefix) ||
		strings.HasPrefix(v, awsPrefix)
}

// Resolve returns the plaintext value for v. Literal values come back
// unchanged. The AWS client is only constructed when an aws-sm reference
// actually appears, so deployments without AWS credentials never touch the
// SDK's credential chain.
func (r *Resolver) Resolve(ctx context.Context, v string) (string, error) {
	switch {
	case strings.HasPrefix(v, filePrefix):
		return r.resolveFile(strings.TrimPrefix(v, filePrefix))
	case strings.HasPrefix(v, envPrefix):
		return os.Getenv(strings.TrimPrefix(v, envPrefix)), nil
	case strings.HasPrefix(v, awsPrefix):
		return r.resolveAWS(ctx, strings.TrimPrefix(v, awsPrefix))
	default:
		return v, nil
	}
}

func (r *Resolver) resolveFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	// Secret files conventionally end with a newline that is not part of
	// the secret.
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (r *Resolver) resolveAWS(ctx context.Context, secretID string) (string, error) {
	if secretID == "" {
		return "", fmt.Errorf("empty aws-sm secret id")
	}

	if r.sm == nil {
		sm, err := r.newClient(ctx)
		if err != nil {
			return "", err
		}
		r.sm = sm
	}

	out, err := r.sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", secretID)
	}

	return aws.ToString(out.SecretString), nil
}
