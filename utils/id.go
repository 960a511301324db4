package utils

import (
	"math/rand"
	"sync"
	"time"
)

// RecyclableIDGenerator generates recyclable unique ids. Connections
// reuse ids after they are recycled, so log output stays compact even
// for long-lived processes.
type RecyclableIDGenerator struct {
	sync.Mutex
	ids  map[uint32]struct{}
	next uint32
}

// NewRecyclableIDGenerator create an id generator
func NewRecyclableIDGenerator() *RecyclableIDGenerator {
	return &RecyclableIDGenerator{
		ids:  make(map[uint32]struct{}),
		next: rand.New(rand.NewSource(time.Now().UnixNano())).Uint32(),
	}
}

// NextID get the next id
func (g *RecyclableIDGenerator) NextID() (id uint32) {
	g.Lock()
	defer g.Unlock()
	for {
		id = g.next
		g.next++
		if id == 0 {
			continue
		}
		if _, ok := g.ids[id]; !ok {
			g.ids[id] = struct{}{}
			break
		}
	}
	return
}

// Recycle recycle the id for future use.
func (g *RecyclableIDGenerator) Recycle(id uint32) {
	g.Lock()
	delete(g.ids, id)
	g.Unlock()
}
