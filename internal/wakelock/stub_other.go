//go:build !linux

package wakelock

func New(string) Lock {
	return &Stub{}
}
