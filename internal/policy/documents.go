// Package policy builds the IAM documents a site needs and checks each
// permission policy against a rego rule set before it is created.
package policy

import (
	"encoding/json"
	"fmt"
)

const version = "2012-10-17"

var logWriteActions = []string{
	"logs:CreateLogGroup",
	"logs:CreateLogStream",
	"logs:PutLogEvents",
}

// Document is an IAM policy document
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is a single IAM statement. Action and Resource are always
// encoded as lists.
type Statement struct {
	Sid       string   `json:"Sid,omitempty"`
	Effect    string   `json:"Effect"`
	Principal any      `json:"Principal,omitempty"`
	Action    []string `json:"Action"`
	Resource  []string `json:"Resource,omitempty"`
}

// JSON encodes the document the way IAM and S3 expect it
func (d Document) JSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(data), nil
}

func allow(actions []string, resources ...string) Statement {
	return Statement{
		Effect:   "Allow",
		Action:   actions,
		Resource: resources,
	}
}

func service(name string) map[string]string {
	return map[string]string{"Service": name}
}

// TrustPolicy lets the named service principal assume a role
func TrustPolicy(servicePrincipal string) Document {
	return Document{
		Version: version,
		Statement: []Statement{
			{
				Effect:    "Allow",
				Principal: service(servicePrincipal),
				Action:    []string{"sts:AssumeRole"},
			},
		},
	}
}

// BucketPolicy grants the build service read/write on the site bucket and
// the public read access on its objects
func BucketPolicy(bucketARN string) Document {
	return Document{
		Version: version,
		Statement: []Statement{
			{
				Sid:       "CodeBuildPushFromSCM",
				Effect:    "Allow",
				Principal: service("codebuild.amazonaws.com"),
				Action:    []string{"s3:PutObject", "s3:ListBucket", "s3:GetObject", "s3:GetObjectVersion"},
				Resource:  []string{bucketARN, bucketARN + "/*"},
			},
			{
				Sid:       "AllowPublicRead",
				Effect:    "Allow",
				Principal: "*",
				Action:    []string{"s3:GetObject"},
				Resource:  []string{bucketARN + "/*"},
			},
		},
	}
}

// BuildPolicy lets the build project pull the repository, write the bucket
// and log
func BuildPolicy(repoARN, bucketARN string) Document {
	return Document{
		Version: version,
		Statement: []Statement{
			allow([]string{"codecommit:GitPull"}, repoARN),
			allow([]string{"s3:PutObject", "s3:GetObject", "s3:ListBucket", "s3:GetObjectVersion"}, bucketARN, bucketARN+"/*"),
			allow(logWriteActions, "*"),
		},
	}
}

// TriggerPolicy lets the build-trigger handler start the build
func TriggerPolicy(repoARN, buildProjectARN string) Document {
	return Document{
		Version: version,
		Statement: []Statement{
			allow([]string{"codecommit:GitPull"}, repoARN),
			allow([]string{"codebuild:StartBuild"}, buildProjectARN),
			allow(logWriteActions, "*"),
		},
	}
}

// InvalidationPolicy lets the invalidation handler flush one distribution
func InvalidationPolicy(distributionARN string) Document {
	return Document{
		Version: version,
		Statement: []Statement{
			allow([]string{"cloudfront:CreateInvalidation"}, distributionARN),
			allow(logWriteActions, "*"),
		},
	}
}

// LogCleanupPolicy lets the log-cleanup handler delete the log groups of
// the given functions and build project
func LogCleanupPolicy(buildProject string, functions ...string) Document {
	var groups []string
	for _, fn := range functions {
		groups = append(groups, "arn:aws:logs:*:*:log-group:/aws/lambda/"+fn+"*")
	}
	groups = append(groups, "arn:aws:logs:*:*:log-group:/aws/codebuild/"+buildProject+"*")

	return Document{
		Version: version,
		Statement: []Statement{
			allow(logWriteActions, "*"),
			allow([]string{"logs:DeleteLogGroup", "logs:DescribeLogStreams", "logs:DeleteLogStream"}, groups...),
		},
	}
}
