package constants

import "time"

// NIP-90 event kinds handled by the agent. The result kind is the request
// kind shifted by 1000, per the protocol.
const (
	KindProfileMetadata    = 0
	KindJobRequest         = 5300
	KindJobResult          = 6300
	KindJobFeedback        = 7000
	KindHandlerInformation = 31990
)

const (
	FeedbackStatusError      = "error"
	FeedbackStatusSuccess    = "success"
	FeedbackStatusProcessing = "processing"
)

const (
	CacheKeyPrefixListing = "listing:"
)

const (
	DefaultListingTTLSeconds     = 900
	DefaultMaxConcurrentDispatch = 32
	DefaultFeedbackRPS           = 5.0
	DefaultFeedbackBurst         = 10
)

const (
	ConnectTimeout  = 10 * time.Second
	FetchTimeout    = 10 * time.Second
	PublishTimeout  = 10 * time.Second
	ShutdownTimeout = 5 * time.Second
)
