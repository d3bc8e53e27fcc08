package wallet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	deployerAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	coldAddr     = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestJSONStoreRoundTrip(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "wallets.json"))

	saved := []*Wallet{
		{Name: "cold", Address: coldAddr, Type: TypeWatchOnly, CreatedAt: "2026-01-02T03:04:05Z"},
		{Name: "deployer", Address: deployerAddr, Type: TypeSigning, KeyRef: keyRef("deployer"), IsDefault: true},
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	wallets, err := NewJSONStore(filepath.Join(t.TempDir(), "wallets.json")).Load()
	require.NoError(t, err)
	assert.Nil(t, wallets)
}

func TestJSONStoreCreatesDirWithPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh", "wallets.json")
	require.NoError(t, NewJSONStore(path).Save([]*Wallet{{Name: "cold", Address: coldAddr}}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0 { // Unix only
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestJSONStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o600))

	_, err := NewJSONStore(path).Load()
	assert.ErrorContains(t, err, "wallets.json")
}

func TestManagersShareJSONStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wallets.json")

	first := NewManager(WithStore(NewJSONStore(path)))
	_, err := first.AddWatchOnly("cold", coldAddr)
	require.NoError(t, err)
	_, err = first.AddWatchOnly("hot", deployerAddr)
	require.NoError(t, err)
	require.NoError(t, first.SetDefault("hot"))
	require.NoError(t, first.Remove("cold"))

	second := NewManager(WithStore(NewJSONStore(path)))
	wallets, err := second.List()
	require.NoError(t, err)
	require.Len(t, wallets, 1)
	assert.Equal(t, "hot", wallets[0].Name)
	assert.True(t, wallets[0].IsDefault)
	assert.Equal(t, deployerAddr, second.Default().Address)
}
