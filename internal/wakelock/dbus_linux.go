//go:build linux

package wakelock

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
)

const (
	screenSaverDest      = "org.freedesktop.ScreenSaver"
	screenSaverPath      = "/org/freedesktop/ScreenSaver"
	screenSaverInterface = "org.freedesktop.ScreenSaver"
)

type caller interface {
	Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// dbusLock inhibits the screensaver through the freedesktop D-Bus API.
type dbusLock struct {
	app string
	obj caller

	mu     sync.Mutex
	cookie uint32
	held   bool
}

// New returns a D-Bus backed lock, or a Stub when the session bus is
// unavailable.
func New(app string) Lock {
	conn, err := dbus.SessionBus()
	if err != nil {
		log.Debug("D-Bus session bus unavailable, wake lock disabled", "error", err)
		return &Stub{}
	}

	return &dbusLock{
		app: app,
		obj: conn.Object(screenSaverDest, screenSaverPath),
	}
}

func (l *dbusLock) Acquire(reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return nil
	}

	call := l.obj.Call(screenSaverInterface+".Inhibit", 0, l.app, reason)
	if call.Err != nil {
		return fmt.Errorf("failed to inhibit screensaver: %w", call.Err)
	}

	var cookie uint32
	if err := call.Store(&cookie); err != nil {
		return fmt.Errorf("failed to read inhibit cookie: %w", err)
	}

	l.cookie = cookie
	l.held = true
	log.Debug("Wake lock acquired", "cookie", cookie)
	return nil
}

func (l *dbusLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}

	call := l.obj.Call(screenSaverInterface+".UnInhibit", 0, l.cookie)
	l.held = false
	if call.Err != nil {
		return fmt.Errorf("failed to uninhibit screensaver: %w", call.Err)
	}

	log.Debug("Wake lock released", "cookie", l.cookie)
	return nil
}

func (l *dbusLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
