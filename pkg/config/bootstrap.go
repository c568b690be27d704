// Package config loads a node's bootstrap parameters - default node-ID,
// CAN interface, bitrate, and LSS identity - from an INI file, the same
// library the teacher's EDS parser (pkg/od/parser.go) uses to read
// structured configuration text.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/cia301/slavecore/pkg/lss"
	"github.com/cia301/slavecore/pkg/node"
)

// Bootstrap holds the parameters a node needs before it can start
// processing frames: an initial node-ID (possibly absent if LSS is
// expected to assign one), the physical CAN interface to open, its
// bitrate, and the LSS identity address this device reports.
type Bootstrap struct {
	NodeId    *node.Id
	Interface string
	BitrateKbps int
	LssAddress lss.Address
}

// Load reads a Bootstrap from an INI file at path. Expected layout:
//
//	[network]
//	interface = can0
//	bitrate = 500
//	node_id = 5
//
//	[lss]
//	vendor_id = 17
//	product_code = 34
//	revision_number = 51
//	serial_number = 68
func Load(path string) (Bootstrap, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return Bootstrap{}, fmt.Errorf("config: loading %s: %w", path, err)
	}

	network := cfg.Section("network")
	lssSection := cfg.Section("lss")

	b := Bootstrap{
		Interface:   network.Key("interface").MustString("can0"),
		BitrateKbps: network.Key("bitrate").MustInt(500),
		LssAddress: lss.Address{
			VendorId:       uint32(lssSection.Key("vendor_id").MustUint64(0)),
			ProductCode:    uint32(lssSection.Key("product_code").MustUint64(0)),
			RevisionNumber: uint32(lssSection.Key("revision_number").MustUint64(0)),
			SerialNumber:   uint32(lssSection.Key("serial_number").MustUint64(0)),
		},
	}

	if raw := network.Key("node_id").MustInt(0); raw != 0 {
		id, err := node.New(uint8(raw))
		if err != nil {
			return Bootstrap{}, fmt.Errorf("config: %s: %w", path, err)
		}
		b.NodeId = &id
	}

	return b, nil
}
