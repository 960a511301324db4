//go:build linux

package poller

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// epollPoller implements Poller on epoll(7). A non-blocking eventfd is
// registered alongside the user descriptors and serves as the wake-up
// channel for Wake.
type epollPoller struct {
	epfd   int
	wakefd int
}

// New creates the platform poller.
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	p := &epollPoller{epfd: epfd, wakefd: wakefd}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, err
	}
	return p, nil
}

func epollEvents(interest Interest) uint32 {
	if interest == InterestWrite {
		return unix.EPOLLOUT
	}
	return unix.EPOLLIN
}

func (p *epollPoller) Add(fd int, interest Interest) error {
	ev := &unix.EpollEvent{Events: epollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (p *epollPoller) Mod(fd int, interest Interest) error {
	ev := &unix.EpollEvent{Events: epollEvents(interest), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (p *epollPoller) Del(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(events []Event) (int, error) {
	raw := make([]unix.EpollEvent, len(events))
	for {
		n, err := unix.EpollWait(p.epfd, raw, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}

		out := 0
		for i := 0; i < n; i++ {
			fd := int(raw[i].Fd)
			if fd == p.wakefd {
				p.drainWake()
				continue
			}
			events[out] = Event{
				Fd:       fd,
				Readable: raw[i].Events&unix.EPOLLIN != 0,
				Writable: raw[i].Events&unix.EPOLLOUT != 0,
				Hangup:   raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
			}
			out++
		}
		return out, nil
	}
}

func (p *epollPoller) Wake() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(p.wakefd, buf[:])
		if err == unix.EINTR {
			continue
		}
		// EAGAIN means the counter is saturated; a wake-up is
		// already pending so the goal is met.
		if err == unix.EAGAIN {
			return nil
		}
		return err
	}
}

// drainWake resets the eventfd counter so the next Wait blocks again.
func (p *epollPoller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != unix.EINTR {
			return
		}
	}
}

func (p *epollPoller) Close() error {
	unix.Close(p.wakefd)
	return unix.Close(p.epfd)
}
