// Package config holds the single configuration record a provisioning run
// is built from, the names derived from it, and the sources it is loaded from.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/savaki/static-site/internal/errors"
)

// Config is the site configuration. The first five fields are required.
type Config struct {
	ProjectName        string `yaml:"project_name"`
	ProjectDescription string `yaml:"project_description"`
	Domain             string `yaml:"domain"`
	DNSZone            string `yaml:"dns_zone"`
	Region             string `yaml:"region"`

	Branch           string `yaml:"branch,omitempty"`
	BuildImage       string `yaml:"build_image,omitempty"`
	ArtifactsDir     string `yaml:"artifacts_dir,omitempty"`
	LogRetentionRate string `yaml:"log_retention_rate,omitempty"`
	EndpointURL      string `yaml:"endpoint_url,omitempty"`

	InvalidationSettle time.Duration `yaml:"invalidation_settle,omitempty"`
	RoleWait           time.Duration `yaml:"role_wait,omitempty"`
	CertificateTimeout time.Duration `yaml:"certificate_timeout,omitempty"`
	CertificatePoll    time.Duration `yaml:"certificate_poll,omitempty"`
	CDNPoll            time.Duration `yaml:"cdn_poll,omitempty"`
	CDNMaxAttempts     int           `yaml:"cdn_max_attempts,omitempty"`

	Tags map[string]string `yaml:"tags,omitempty"`
}

// Defaults returns a Config holding only the optional defaults
func Defaults() *Config {
	return &Config{
		Branch:             "master",
		BuildImage:         "aws/codebuild/standard:7.0",
		ArtifactsDir:       "dist/lambda",
		LogRetentionRate:   "rate(30 days)",
		InvalidationSettle: 60 * time.Second,
		RoleWait:           60 * time.Second,
		CertificateTimeout: 2 * time.Hour,
		CertificatePoll:    30 * time.Second,
		CDNPoll:            60 * time.Second,
		CDNMaxAttempts:     60,
	}
}

// Overlay copies every non-zero field of o onto c. Tags are merged.
func (c *Config) Overlay(o *Config) {
	if o == nil {
		return
	}
	setString(&c.ProjectName, o.ProjectName)
	setString(&c.ProjectDescription, o.ProjectDescription)
	setString(&c.Domain, o.Domain)
	setString(&c.DNSZone, o.DNSZone)
	setString(&c.Region, o.Region)
	setString(&c.Branch, o.Branch)
	setString(&c.BuildImage, o.BuildImage)
	setString(&c.ArtifactsDir, o.ArtifactsDir)
	setString(&c.LogRetentionRate, o.LogRetentionRate)
	setString(&c.EndpointURL, o.EndpointURL)
	setDuration(&c.InvalidationSettle, o.InvalidationSettle)
	setDuration(&c.RoleWait, o.RoleWait)
	setDuration(&c.CertificateTimeout, o.CertificateTimeout)
	setDuration(&c.CertificatePoll, o.CertificatePoll)
	setDuration(&c.CDNPoll, o.CDNPoll)
	if o.CDNMaxAttempts != 0 {
		c.CDNMaxAttempts = o.CDNMaxAttempts
	}
	if len(o.Tags) > 0 {
		if c.Tags == nil {
			c.Tags = map[string]string{}
		}
		for k, v := range o.Tags {
			c.Tags[k] = v
		}
	}
}

var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Validate checks the record before any API call is made
func (c *Config) Validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"project_name", c.ProjectName},
		{"project_description", c.ProjectDescription},
		{"domain", c.Domain},
		{"dns_zone", c.DNSZone},
		{"region", c.Region},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errors.ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if !projectNamePattern.MatchString(c.ProjectName) {
		return fmt.Errorf("%w: project_name %q must match %s", errors.ErrInvalidConfig, c.ProjectName, projectNamePattern)
	}

	domain := normalizeDomain(c.Domain)
	zone := normalizeDomain(c.DNSZone)
	if domain != zone && !strings.HasSuffix(domain, "."+zone) {
		return fmt.Errorf("%w: domain %q is not inside dns_zone %q", errors.ErrInvalidConfig, c.Domain, c.DNSZone)
	}

	if c.CDNMaxAttempts < 1 {
		return fmt.Errorf("%w: cdn_max_attempts must be positive", errors.ErrInvalidConfig)
	}
	if c.CDNPoll <= 0 || c.CertificatePoll <= 0 || c.CertificateTimeout <= 0 || c.RoleWait <= 0 {
		return fmt.Errorf("%w: wait intervals must be positive", errors.ErrInvalidConfig)
	}

	return nil
}

func normalizeDomain(s string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

// Set assigns a single field by its YAML key. Unknown keys are rejected.
func (c *Config) Set(key, value string) error {
	switch key {
	case "project_name":
		c.ProjectName = value
	case "project_description":
		c.ProjectDescription = value
	case "domain":
		c.Domain = value
	case "dns_zone":
		c.DNSZone = value
	case "region":
		c.Region = value
	case "branch":
		c.Branch = value
	case "build_image":
		c.BuildImage = value
	case "artifacts_dir":
		c.ArtifactsDir = value
	case "log_retention_rate":
		c.LogRetentionRate = value
	case "endpoint_url":
		c.EndpointURL = value
	case "invalidation_settle":
		return parseDuration(&c.InvalidationSettle, value)
	case "role_wait":
		return parseDuration(&c.RoleWait, value)
	case "certificate_timeout":
		return parseDuration(&c.CertificateTimeout, value)
	case "certificate_poll":
		return parseDuration(&c.CertificatePoll, value)
	case "cdn_poll":
		return parseDuration(&c.CDNPoll, value)
	case "cdn_max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: cdn_max_attempts: %v", errors.ErrInvalidConfig, err)
		}
		c.CDNMaxAttempts = n
	default:
		return fmt.Errorf("%w: unknown field %q", errors.ErrInvalidConfig, key)
	}
	return nil
}

func parseDuration(dst *time.Duration, value string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	*dst = d
	return nil
}
