package syncutil_test

import (
	"testing"

	"github.com/hstore-labs/voltcore/pkg/util/syncutil"
)

func TestMutexEmbedsStdlib(t *testing.T) {
	var m syncutil.Mutex
	m.Lock()
	m.AssertHeld()
	m.Unlock()
}

func TestRWMutexEmbedsStdlib(t *testing.T) {
	var rw syncutil.RWMutex
	rw.RLock()
	rw.AssertRHeld()
	rw.RUnlock()

	rw.Lock()
	rw.AssertHeld()
	rw.Unlock()
}
