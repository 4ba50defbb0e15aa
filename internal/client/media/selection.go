package media

import "sync"

// Selection holds the media the user picked but has not sent yet. A
// failed send clears it so no stale preview survives.
type Selection struct {
	mu   sync.Mutex
	ref  Ref
	kind Kind
	set  bool
}

func (s *Selection) Set(ref Ref, kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref, s.kind, s.set = ref, kind, true
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref, s.kind, s.set = "", "", false
}

func (s *Selection) Current() (Ref, Kind, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref, s.kind, s.set
}
