package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeature struct {
	name    string
	enabled bool
	err     error
	loaded  bool
}

func (f *fakeFeature) Name() string    { return f.name }
func (f *fakeFeature) IsEnabled() bool { return f.enabled }
func (f *fakeFeature) Load(fiber.Router) error {
	f.loaded = true
	return f.err
}

func TestManager_LoadAll(t *testing.T) {
	status := &fakeFeature{name: "status", enabled: true}
	off := &fakeFeature{name: "off"}

	mgr := NewManager(nil)
	mgr.Register(status)
	mgr.Register(off)
	require.Len(t, mgr.Features(), 2)

	require.NoError(t, mgr.LoadAll(fiber.New()))
	assert.True(t, status.loaded)
	assert.False(t, off.loaded)
}

func TestManager_LoadAllStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	broken := &fakeFeature{name: "broken", enabled: true, err: boom}
	next := &fakeFeature{name: "next", enabled: true}

	mgr := NewManager(nil)
	mgr.Register(broken)
	mgr.Register(next)

	err := mgr.LoadAll(fiber.New())
	assert.ErrorIs(t, err, boom)
	assert.False(t, next.loaded)
}
