package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

type fakeSecretsManager struct {
	secrets map[string]string
	err     error
	calls   int
}

func (f *fakeSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.secrets[aws.ToString(params.SecretId)]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestResolve_LiteralPassThrough(t *testing.T) {
	r := NewResolver()

	tests := []string{"plain-password", "", "p@ss:with/odd&chars", "files://close-but-no"}

	for _, v := range tests {
		got, err := r.Resolve(context.Background(), v)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", v, err)
		}
		if got != v {
			t.Errorf("Resolve(%q) = %q, want unchanged", v, got)
		}
	}
}

func TestResolve_File(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "db_password")

	if err := os.WriteFile(path, []byte("hunter2\n"), 0600); err != nil {
		t.Fatalf("Failed to write secret file: %v", err)
	}

	r := NewResolver()
	got, err := r.Resolve(context.Background(), "file://"+path)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("Resolve() = %q, want hunter2 (trailing newline trimmed)", got)
	}
}

func TestResolve_FileMissing(t *testing.T) {
	r := NewResolver()

	_, err := r.Resolve(context.Background(), "file:///nonexistent/secret")
	if err == nil {
		t.Error("Resolve() should error for a missing secret file")
	}
}

func TestResolve_Env(t *testing.T) {
	os.Setenv("RESOLVER_TEST_SECRET", "from-env")
	defer os.Unsetenv("RESOLVER_TEST_SECRET")

	r := NewResolver()
	got, err := r.Resolve(context.Background(), "env://RESOLVER_TEST_SECRET")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != "from-env" {
		t.Errorf("Resolve() = %q, want from-env", got)
	}
}

func TestResolve_AWS(t *testing.T) {
	fake := &fakeSecretsManager{
		secrets: map[string]string{"prod/db/password": "s3cret"},
	}
	r := NewResolverWithClient(fake)

	got, err := r.Resolve(context.Background(), "aws-sm://prod/db/password")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got != "s3cret" {
		t.Errorf("Resolve() = %q, want s3cret", got)
	}
	if fake.calls != 1 {
		t.Errorf("GetSecretValue calls = %d, want 1", fake.calls)
	}
}

func TestResolve_AWSNotFound(t *testing.T) {
	fake := &fakeSecretsManager{secrets: map[string]string{}}
	r := NewResolverWithClient(fake)

	_, err := r.Resolve(context.Background(), "aws-sm://missing")
	if err == nil {
		t.Error("Resolve() should propagate the Secrets Manager error")
	}
}

func TestResolve_AWSEmptyID(t *testing.T) {
	r := NewResolverWithClient(&fakeSecretsManager{})

	_, err := r.Resolve(context.Background(), "aws-sm://")
	if err == nil {
		t.Error("Resolve() should reject an empty secret id")
	}
}

func TestResolve_LiteralNeverTouchesAWS(t *testing.T) {
	fake := &fakeSecretsManager{}
	r := NewResolverWithClient(fake)

	if _, err := r.Resolve(context.Background(), "literal"); err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("GetSecretValue calls = %d, want 0 for a literal value", fake.calls)
	}
}

func TestIsReference(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"file:///run/secrets/pw", true},
		{"env://OTHER", true},
		{"aws-sm://prod/db", true},
		{"plain", false},
		{"", false},
		{"http://not-a-secret", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := IsReference(tt.value); got != tt.want {
				t.Errorf("IsReference(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
