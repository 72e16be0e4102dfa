package jobrequest

import (
	"github.com/nbd-wtf/go-nostr"
)

// InputType classifies what the data field of a job input refers to.
type InputType string

const (
	InputTypeURL   InputType = "url"
	InputTypeEvent InputType = "event"
	InputTypeJob   InputType = "job"
	InputTypeText  InputType = "text"
)

// Marker selects the workflow an input routes to.
type Marker string

const (
	MarkerOrder   Marker = "order"
	MarkerQuote   Marker = "quote"
	MarkerPreview Marker = "preview"
)

// Input is one requested unit of work. Relay and Marker are optional; an
// empty Marker routes nowhere and is rejected at dispatch time.
type Input struct {
	Data   string
	Type   InputType
	Relay  string
	Marker Marker
}

type Param struct {
	Key   string
	Value string
}

// JobRequest is a fully parsed inbound job event. Tags retains the resolved
// raw tag list for handlers that need fields not promoted here.
type JobRequest struct {
	ID               string
	Inputs           []Input
	Output           string
	BidMsat          *uint64
	Relays           []string
	ServiceProviders []string
	Params           []Param
	Hashtags         []string
	Tags             nostr.Tags
}
