package storeconfig_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corestore/corestore/storeconfig"
	"github.com/corestore/corestore/storeconfig/feeders"
)

func TestLoadFromToml(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
auto_init = true
side_effect_threads = 8
grace_time_seconds = 2.5
`), 0o600))

	opts, err := storeconfig.Load(feeders.NewTomlFeeder(path))
	require.NoError(t, err)

	assert.True(t, opts.AutoInit)
	assert.Equal(t, 8, opts.SideEffectThreads)
	assert.Equal(t, 2500*time.Millisecond, opts.GraceTime)
}

func TestLoadFromYamlCoercesLooselyTypedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auto_init: false
side_effect_threads: 4.0
grace_time_seconds: "1.5"
`), 0o600))

	opts, err := storeconfig.Load(feeders.NewYamlFeeder(path))
	require.NoError(t, err)

	assert.False(t, opts.AutoInit)
	assert.Equal(t, 4, opts.SideEffectThreads)
	assert.Equal(t, 1500*time.Millisecond, opts.GraceTime)
}

func TestLoadAppliesDefaultsWhenFieldsAreAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.toml")
	require.NoError(t, os.WriteFile(path, []byte(`auto_init = true`), 0o600))

	opts, err := storeconfig.Load(feeders.NewTomlFeeder(path))
	require.NoError(t, err)

	assert.Equal(t, 4, opts.SideEffectThreads)
	assert.Equal(t, 5*time.Second, opts.GraceTime)
}

func TestStoreOptionsProducesUsableCorestoreOptions(t *testing.T) {
	opts := storeconfig.Options{AutoInit: false, SideEffectThreads: 2, GraceTime: time.Second}
	assert.Len(t, opts.StoreOptions(), 3)
}
