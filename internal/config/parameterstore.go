package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"gopkg.in/yaml.v3"
)

// Source loads a partial Config. Fields a source does not set are left zero
// so sources can be layered with Overlay.
type Source interface {
	Load(ctx context.Context) (*Config, error)
}

// StaticSource is a fixed partial Config, used to seed values such as the
// project name below every other source
type StaticSource struct {
	Config Config
}

// Load returns a copy of the fixed values
func (s StaticSource) Load(ctx context.Context) (*Config, error) {
	cfg := s.Config
	return &cfg, nil
}

// FileSource reads a YAML configuration file
type FileSource struct {
	path string
}

// NewFileSource creates a YAML file backed source
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Load parses the YAML file
func (f *FileSource) Load(ctx context.Context) (*Config, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", f.path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", f.path, err)
	}
	return &cfg, nil
}

// SSMParameterStore reads configuration from AWS Systems Manager Parameter
// Store. Each field is one parameter named after its YAML key below path,
// e.g. /static-site/demo/domain; tags live under path/tags/<key>.
type SSMParameterStore struct {
	client ssm.GetParametersByPathAPIClient
	path   string
}

// NewSSMParameterStore creates a new SSM-backed parameter store
func NewSSMParameterStore(client ssm.GetParametersByPathAPIClient, path string) *SSMParameterStore {
	return &SSMParameterStore{
		client: client,
		path:   strings.TrimSuffix(path, "/"),
	}
}

// Load retrieves all parameters below the path
func (s *SSMParameterStore) Load(ctx context.Context) (*Config, error) {
	params := map[string]string{}
	tags := map[string]string{}

	paginator := ssm.NewGetParametersByPathPaginator(s.client, &ssm.GetParametersByPathInput{
		Path:           aws.String(s.path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get parameters by path %s: %w", s.path, err)
		}
		for _, param := range page.Parameters {
			if param.Name == nil || param.Value == nil {
				continue
			}
			key := strings.TrimPrefix(aws.ToString(param.Name), s.path+"/")
			if tag, ok := strings.CutPrefix(key, "tags/"); ok {
				tags[tag] = aws.ToString(param.Value)
				continue
			}
			params[key] = aws.ToString(param.Value)
		}
	}

	var cfg Config
	for key, value := range params {
		if err := cfg.Set(key, value); err != nil {
			return nil, fmt.Errorf("parameter %s/%s: %w", s.path, key, err)
		}
	}
	if len(tags) > 0 {
		cfg.Tags = tags
	}
	return &cfg, nil
}

// Load layers defaults, then each source in order, then overrides, and
// validates the result
func Load(ctx context.Context, overrides *Config, sources ...Source) (*Config, error) {
	cfg := Defaults()
	for _, source := range sources {
		partial, err := source.Load(ctx)
		if err != nil {
			return nil, err
		}
		cfg.Overlay(partial)
	}
	cfg.Overlay(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
