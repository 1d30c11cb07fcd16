package realtime

import "sync"

// Subscriber is anything listeners can be attached to
type Subscriber interface {
	On(event string, handler Handler) Disposer
}

// Scope collects disposers so a view can release everything it registered in one call
type Scope struct {
	mu        sync.Mutex
	disposers []Disposer
	disposed  bool
}

func NewScope() *Scope {
	return &Scope{}
}

// Add keeps d until Dispose. Adding to a disposed scope runs d at once.
func (s *Scope) Add(d Disposer) {
	if d == nil {
		return
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		d()
		return
	}
	s.disposers = append(s.disposers, d)
	s.mu.Unlock()
}

// On registers handler on sub and ties its lifetime to the scope
func (s *Scope) On(sub Subscriber, event string, handler Handler) {
	s.Add(sub.On(event, handler))
}

// Len returns the number of live registrations
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.disposers)
}

// Dispose runs every disposer, newest first
func (s *Scope) Dispose() {
	s.mu.Lock()
	ds := s.disposers
	s.disposers = nil
	s.disposed = true
	s.mu.Unlock()

	for i := len(ds) - 1; i >= 0; i-- {
		ds[i]()
	}
}
