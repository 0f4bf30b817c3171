// Package wakelock keeps the desktop from blanking the screen or sleeping
// while a video plays.
package wakelock

// Lock is safe to Acquire and Release repeatedly; extra calls are no-ops.
type Lock interface {
	Acquire(reason string) error
	Release() error
	Held() bool
}

// Stub is used when no inhibition service is available.
type Stub struct {
	held bool
}

func (s *Stub) Acquire(string) error {
	s.held = true
	return nil
}

func (s *Stub) Release() error {
	s.held = false
	return nil
}

func (s *Stub) Held() bool {
	return s.held
}
