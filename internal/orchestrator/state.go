package orchestrator

// Key names a value produced by one stage and read by later ones
type Key string

const (
	KeyBucketName              Key = "bucket.name"
	KeyBucketARN               Key = "bucket.arn"
	KeyRepoARN                 Key = "repo.arn"
	KeyRepoCloneHTTP           Key = "repo.clone_http"
	KeyRepoCloneSSH            Key = "repo.clone_ssh"
	KeyBuildARN                Key = "build.arn"
	KeyBuildRoleARN            Key = "build.role_arn"
	KeyTriggerFunctionARN      Key = "trigger.function_arn"
	KeyTriggerFunctionName     Key = "trigger.function_name"
	KeyCertificateARN          Key = "certificate.arn"
	KeyZoneID                  Key = "zone.id"
	KeyCDNID                   Key = "cdn.id"
	KeyCDNARN                  Key = "cdn.arn"
	KeyCDNDomain               Key = "cdn.domain"
	KeyInvalidationFunctionARN Key = "invalidation.function_arn"
	KeyInvalidationFunction    Key = "invalidation.function_name"
	KeyLogCleanupFunctionARN   Key = "logcleanup.function_arn"
	KeyLogCleanupRuleARN       Key = "logcleanup.rule_arn"
	KeySiteURL                 Key = "site.url"
)

// State carries stage outputs through a single run
type State struct {
	values map[Key]string
}

// NewState returns an empty State
func NewState() *State {
	return &State{values: map[Key]string{}}
}

// Get returns the value for key and whether it has been produced
func (s *State) Get(key Key) (string, bool) {
	v, ok := s.values[key]
	return v, ok && v != ""
}

// Value returns the value for key, or "" when absent
func (s *State) Value(key Key) string {
	return s.values[key]
}

// Set records a produced value
func (s *State) Set(key Key, value string) {
	s.values[key] = value
}

// Snapshot returns a copy of every produced value
func (s *State) Snapshot() map[Key]string {
	out := make(map[Key]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
