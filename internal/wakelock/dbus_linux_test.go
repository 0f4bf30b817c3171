//go:build linux

package wakelock

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	methods []string
	args    [][]interface{}
	err     error
}

func (f *fakeBus) Call(method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	f.methods = append(f.methods, method)
	f.args = append(f.args, args)
	if f.err != nil {
		return &dbus.Call{Err: f.err}
	}
	if method == screenSaverInterface+".Inhibit" {
		return &dbus.Call{Body: []interface{}{uint32(42)}}
	}
	return &dbus.Call{}
}

func TestDBusLock_AcquireRelease(t *testing.T) {
	bus := &fakeBus{}
	l := &dbusLock{app: "podplay", obj: bus}

	require.NoError(t, l.Acquire("playing video"))
	require.NoError(t, l.Acquire("playing video"))
	assert.True(t, l.Held())

	require.NoError(t, l.Release())
	require.NoError(t, l.Release())
	assert.False(t, l.Held())

	assert.Equal(t, []string{
		screenSaverInterface + ".Inhibit",
		screenSaverInterface + ".UnInhibit",
	}, bus.methods)
	assert.Equal(t, []interface{}{"podplay", "playing video"}, bus.args[0])
	assert.Equal(t, []interface{}{uint32(42)}, bus.args[1])
}

func TestDBusLock_AcquireError(t *testing.T) {
	l := &dbusLock{app: "podplay", obj: &fakeBus{err: errors.New("no service")}}

	err := l.Acquire("playing video")

	assert.ErrorContains(t, err, "no service")
	assert.False(t, l.Held())
}

func TestStub(t *testing.T) {
	s := &Stub{}
	require.NoError(t, s.Acquire("x"))
	assert.True(t, s.Held())
	require.NoError(t, s.Release())
	assert.False(t, s.Held())
}
