package reactor

import (
	"sync"

	"github.com/eventsock/eventsock/poller"
)

// fakePoller records registration calls so dispatch paths can be
// driven directly, without a reactor goroutine or a real epoll fd.
type fakePoller struct {
	sync.Mutex
	interests map[int]poller.Interest
	wakes     int
	dels      []int
}

func newFakePoller() *fakePoller {
	return &fakePoller{interests: make(map[int]poller.Interest)}
}

func (p *fakePoller) Add(fd int, interest poller.Interest) error {
	p.Lock()
	defer p.Unlock()
	p.interests[fd] = interest
	return nil
}

func (p *fakePoller) Mod(fd int, interest poller.Interest) error {
	p.Lock()
	defer p.Unlock()
	p.interests[fd] = interest
	return nil
}

func (p *fakePoller) Del(fd int) error {
	p.Lock()
	defer p.Unlock()
	delete(p.interests, fd)
	p.dels = append(p.dels, fd)
	return nil
}

func (p *fakePoller) Wait(events []poller.Event) (int, error) {
	return 0, nil
}

func (p *fakePoller) Wake() error {
	p.Lock()
	defer p.Unlock()
	p.wakes++
	return nil
}

func (p *fakePoller) Close() error {
	return nil
}

func (p *fakePoller) interest(fd int) (poller.Interest, bool) {
	p.Lock()
	defer p.Unlock()
	in, ok := p.interests[fd]
	return in, ok
}
