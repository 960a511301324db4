// Package poller abstracts the OS readiness multiplexer (epoll on Linux)
// behind a small interface. A Poller reports which registered file
// descriptors are ready for their single registered interest.
//
// Only one goroutine may call Add/Mod/Del/Wait; Wake is safe from any
// goroutine and is the only way to unblock Wait without fd readiness.
package poller

type (
	// Interest is the single operation a registration waits for.
	// A descriptor is registered for exactly one interest at a time;
	// Add and Mod always replace, they never accumulate.
	Interest int

	// Event describes one ready descriptor returned by Wait.
	Event struct {
		Fd       int
		Readable bool
		Writable bool
		// Hangup is set on error or peer hang-up conditions
		// (EPOLLERR/EPOLLHUP).
		Hangup bool
	}

	// Poller is the readiness multiplexer.
	Poller interface {
		// Add registers fd with the given interest.
		Add(fd int, interest Interest) error
		// Mod replaces the interest of an already registered fd.
		Mod(fd int, interest Interest) error
		// Del removes fd from the poller.
		Del(fd int) error
		// Wait blocks until at least one registered fd is ready or
		// Wake is called, then fills events and returns the count.
		// It never times out.
		Wait(events []Event) (n int, err error)
		// Wake unblocks a concurrent Wait.
		Wake() error
		// Close releases the poller resources.
		Close() error
	}
)

// interests
const (
	InterestRead Interest = iota
	InterestWrite
)

func (i Interest) String() string {
	switch i {
	case InterestRead:
		return "read"
	case InterestWrite:
		return "write"
	}
	return "unknown"
}
