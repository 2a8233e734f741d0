package util

import (
	"sync"

	"framebuf/pkg/buffer"
)

// StorePool recycles read buffers between connections so steady-state
// traffic does not allocate.
type StorePool interface {
	Get() *buffer.Store
	Put(s *buffer.Store)
}

// sync.Pool based store pool
type SyncStorePool struct {
	pool    sync.Pool
	maxSize int
}

func NewSyncStorePool(maxSize int) StorePool {
	p := &SyncStorePool{maxSize: maxSize}
	p.pool.New = func() interface{} {
		return buffer.NewStore(maxSize)
	}
	return p
}

func (p *SyncStorePool) Get() *buffer.Store {
	item := p.pool.Get()
	s, ok := item.(*buffer.Store)
	if !ok {
		s = buffer.NewStore(p.maxSize)
	}
	return s
}

func (p *SyncStorePool) Put(s *buffer.Store) {
	s.Reset()
	p.pool.Put(s)
}

// channel based store pool, bounded so idle buffers are released
type ChanStorePool struct {
	poolCh  chan *buffer.Store
	maxSize int
}

func NewChanStorePool(chansize int, maxSize int) StorePool {
	p := &ChanStorePool{
		poolCh:  make(chan *buffer.Store, chansize),
		maxSize: maxSize,
	}

	return p
}

func (p *ChanStorePool) Get() (s *buffer.Store) {
	select {
	case s = <-p.poolCh:
	default:
		s = buffer.NewStore(p.maxSize)
	}

	return s
}

func (p *ChanStorePool) Put(s *buffer.Store) {
	s.Reset()
	select {
	case p.poolCh <- s:
	default:
		// do nothing, will be gc
	}
}
