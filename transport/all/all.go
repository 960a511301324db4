// Package all is used to register all transports. This allows a program
// to support all known transports with a single import.
package all

import (
	// import transports
	_ "github.com/eventsock/eventsock/transport/ipc"
	_ "github.com/eventsock/eventsock/transport/tcp"
)
