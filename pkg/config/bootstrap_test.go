package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cia301/slavecore/pkg/config"
)

func TestLoadParsesNetworkAndLssSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.ini")
	contents := `
[network]
interface = can1
bitrate = 250
node_id = 7

[lss]
vendor_id = 17
product_code = 34
revision_number = 51
serial_number = 68
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	b, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "can1", b.Interface)
	assert.Equal(t, 250, b.BitrateKbps)
	require.NotNil(t, b.NodeId)
	assert.Equal(t, uint8(7), b.NodeId.Raw())
	assert.Equal(t, uint32(17), b.LssAddress.VendorId)
}

func TestLoadDefaultsWhenNodeIdAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.ini")
	require.NoError(t, os.WriteFile(path, []byte("[network]\ninterface = can0\n"), 0o644))

	b, err := config.Load(path)
	require.NoError(t, err)
	assert.Nil(t, b.NodeId)
	assert.Equal(t, 500, b.BitrateKbps)
}
