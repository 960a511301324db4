package reactor

import (
	"github.com/eventsock/eventsock/options"
)

type optionName int

const (
	optionNameReadBufSize optionName = iota
	optionNameSendBufSize
	optionNameChangeQueueSize
)

// Options
var (
	// OptionReadBufSize bounds the bytes consumed by one read event.
	OptionReadBufSize = options.NewIntOption(optionNameReadBufSize)
	// OptionSendBufSize is the SO_SNDBUF value requested whenever a
	// connection registers write interest.
	OptionSendBufSize = options.NewIntOption(optionNameSendBufSize)
	// OptionChangeQueueSize caps the pending change request queue.
	// Requests enqueued beyond the cap are logged and dropped.
	OptionChangeQueueSize = options.NewIntOption(optionNameChangeQueueSize)
)

// defaults
const (
	// DefaultReadBufSize is the read quota per ready event.
	DefaultReadBufSize = 10 * 1024
	// DefaultSendBufSize is the send-buffer size requested on write
	// registrations, sized for 150 in-flight reads.
	DefaultSendBufSize = 150 * DefaultReadBufSize
	// DefaultChangeQueueSize is the change request queue cap.
	DefaultChangeQueueSize = 1024

	// eventBatch is the readiness events fetched per wait cycle.
	eventBatch = 128
)
