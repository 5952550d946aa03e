package constants

// Fixed AWS values used by the provisioner
const (
	// CloudFrontHostedZoneID is the hosted zone every CloudFront alias
	// record must target
	CloudFrontHostedZoneID = "Z2FDTNDATAQYW2"

	// CertificateRegion is the only region whose certificates CloudFront accepts
	CertificateRegion = "us-east-1"

	// DefaultRegion is used when a bucket needs no LocationConstraint
	DefaultRegion = "us-east-1"

	// HandlerRuntime and HandlerEntrypoint describe the packaged Go handlers
	HandlerRuntime    = "provided.al2023"
	HandlerEntrypoint = "bootstrap"

	// ManagedByTag marks every resource created by this tool
	ManagedByTag   = "ManagedBy"
	ManagedByValue = "static-site"
)

// Handler artifact directory names under the artifacts dir
const (
	TriggerBuildHandler  = "trigger-build"
	InvalidateCDNHandler = "invalidate-cdn"
	LogCleanupHandler    = "log-cleanup"
)

// Environment variable names read by the handlers
const (
	EnvBuildProjectName   = "BUILD_PROJECT_NAME"
	EnvCDNDistributionID  = "CDN_DIST_ID"
	EnvSettleDelay        = "SETTLE_DELAY"
	EnvBuildLog           = "BUILD_LOG"
	EnvTriggerLog         = "TRIGGER_LOG"
	EnvCDNInvalidationLog = "CDN_INVALIDATION_LOG"
	EnvSiteBucket         = "SITE_BUCKET"
)
