package relay

import (
	"context"
	"sync"
)

const memoryBuffer = 64

// Memory is an in-process Relay. Publish never blocks: a subscriber whose
// buffer is full misses the message.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySub]struct{}
	closed bool
}

type memorySub struct {
	m       *Memory
	channel string
	ch      chan []byte
	once    sync.Once
	done    chan struct{}
	exited  chan struct{}
}

// NewMemory creates an in-process relay.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[*memorySub]struct{})}
}

func (m *Memory) Connect(context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}

func (m *Memory) Publish(_ context.Context, channel string, payload []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	msg := append([]byte(nil), payload...)
	for sub := range m.subs[channel] {
		select {
		case sub.ch <- msg:
		default:
		}
	}
	return nil
}

func (m *Memory) Subscribe(_ context.Context, channel string, h Handler) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	sub := &memorySub{
		m:       m,
		channel: channel,
		ch:      make(chan []byte, memoryBuffer),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[*memorySub]struct{})
	}
	m.subs[channel][sub] = struct{}{}

	go sub.loop(h)
	return sub, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	var all []*memorySub
	for _, subs := range m.subs {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range all {
		_ = sub.Close()
	}
	return nil
}

func (s *memorySub) loop(h Handler) {
	defer close(s.exited)
	for {
		select {
		case msg := <-s.ch:
			h(context.Background(), msg)
		case <-s.done:
			return
		}
	}
}

func (s *memorySub) Close() error {
	s.once.Do(func() {
		s.m.mu.Lock()
		delete(s.m.subs[s.channel], s)
		if len(s.m.subs[s.channel]) == 0 {
			delete(s.m.subs, s.channel)
		}
		s.m.mu.Unlock()
		close(s.done)
		<-s.exited
	})
	return nil
}
