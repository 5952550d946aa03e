package config

import (
	"fmt"
	"strings"
)

// Names are the resource names derived from a Config. Every create call and
// every teardown lookup uses these, so a second run addresses the same resources.
type Names struct {
	Bucket    string
	BucketARN string
	Origin    string

	Repository  string
	RepoTrigger string

	BuildProject string
	BuildLog     string

	TriggerFunction      string
	InvalidationFunction string
	LogCleanupFunction   string
	LogCleanupRule       string

	Roles    RoleNames
	Policies RoleNames
	Paths    RoleNames
}

// RoleNames groups one value for each of the four principals
type RoleNames struct {
	Build        string
	Trigger      string
	Invalidation string
	LogCleanup   string
}

// Names derives every resource name from the project name and domain
func (c *Config) Names() Names {
	p := c.ProjectName
	bucket := strings.TrimSuffix(c.Domain, ".")

	return Names{
		Bucket:    bucket,
		BucketARN: "arn:aws:s3:::" + bucket,
		Origin:    bucket + ".s3.amazonaws.com",

		Repository:  p,
		RepoTrigger: p + "-trigger",

		BuildProject: p,
		BuildLog:     "/aws/codebuild/" + p,

		TriggerFunction:      p + "-build-phase-trigger",
		InvalidationFunction: p + "-cdn-cached-objects-invalidation",
		LogCleanupFunction:   p + "-log-cleanup",
		LogCleanupRule:       p + "-log-cleanup",

		Roles: RoleNames{
			Build:        p + "-codebuild-role",
			Trigger:      p + "-lambda-build-trigger-role",
			Invalidation: p + "-lambda-invalidate-cdn-role",
			LogCleanup:   p + "-lambda-log-clean-role",
		},
		Policies: RoleNames{
			Build:        p + "-codebuild-policy",
			Trigger:      p + "-lambda-build-trigger-policy",
			Invalidation: p + "-lambda-invalidate-cdn-policy",
			LogCleanup:   p + "-lambda-log-clean-policy",
		},
		Paths: RoleNames{
			Build:        fmt.Sprintf("/%s/codebuild/", p),
			Trigger:      fmt.Sprintf("/%s/lambda/trigger/", p),
			Invalidation: fmt.Sprintf("/%s/lambda/invalidatecdn/", p),
			LogCleanup:   fmt.Sprintf("/%s/lambda/logclean/", p),
		},
	}
}

// FunctionLog returns the CloudWatch log group of a Lambda function
func FunctionLog(function string) string {
	return "/aws/lambda/" + function
}
