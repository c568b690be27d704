// Command canopenslave runs one CANopen slave node against a real
// SocketCAN interface, wiring pkg/config, pkg/canbus and pkg/slave
// together the way the teacher's cmd/canopen/main.go wires its own
// bus/node/background-loop triplet. Like that legacy entry point, this
// is the one place in the module that logs through logrus rather than
// slog.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cia301/slavecore/pkg/canbus"
	"github.com/cia301/slavecore/pkg/config"
	"github.com/cia301/slavecore/pkg/frame"
	"github.com/cia301/slavecore/pkg/lss"
	"github.com/cia301/slavecore/pkg/node"
	"github.com/cia301/slavecore/pkg/od"
	"github.com/cia301/slavecore/pkg/slave"
)

func main() {
	configPath := flag.String("c", "canopenslave.ini", "bootstrap config file (INI)")
	canInterface := flag.String("i", "", "socketcan interface, overrides config")
	nodeIdFlag := flag.Int("n", 0, "node id, overrides config (0 lets LSS assign one)")
	debug := flag.Bool("debug", false, "enable debug-level CLI logging")
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	// Domain services (pkg/sdo, pkg/pdo, pkg/nmt, pkg/lss, pkg/slave) log
	// through slog, following the teacher's own instrumentation; this
	// entry point bridges slog's text handler onto logrus's writer so
	// both streams land on the same terminal.
	logger := slog.New(slog.NewTextHandler(log.StandardLogger().Out, nil))

	boot, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).WithField("path", *configPath).Fatal("failed to load bootstrap config")
	}
	if *canInterface != "" {
		boot.Interface = *canInterface
	}
	if *nodeIdFlag != 0 {
		id, err := node.New(uint8(*nodeIdFlag))
		if err != nil {
			log.WithError(err).Fatal("invalid -n node id")
		}
		boot.NodeId = &id
	}

	id, placeholder := resolveStartupId(boot)
	dict, err := buildDictionary()
	if err != nil {
		log.WithError(err).Fatal("failed to build object dictionary")
	}

	lssId := id
	lssSlave := lss.NewSlave(logger, &lssId, boot.LssAddress, lss.Callbacks{
		StoreConfiguration: func(node.Id) lss.StoreResult { return lss.StoreNotSupported },
		OnNewNodeId: func(newId node.Id) {
			log.WithField("node_id", newId.Raw()).Info("lss assigned new node id, reset required to take effect")
		},
	})

	n := slave.New(logger, id, dict, lssSlave, nil)
	if placeholder {
		log.WithField("node_id", id.Raw()).Warn("no node id configured, running with placeholder id until LSS configures one")
	}

	bus, err := canbus.Open(boot.Interface)
	if err != nil {
		log.WithError(err).WithField("interface", boot.Interface).Fatal("failed to open CAN interface")
	}
	defer bus.Close()

	bus.Subscribe(func(f frame.Frame) {
		if resp, ok := n.HandleFrame(f); ok {
			if err := bus.Send(resp); err != nil {
				log.WithError(err).Warn("failed to send response frame")
			}
		}
	})

	go func() {
		if err := bus.Run(); err != nil {
			log.WithError(err).Error("can bus terminated")
		}
	}()

	if err := bus.Send(n.NMT.BootUp()); err != nil {
		log.WithError(err).Warn("failed to send boot-up frame")
	}
	log.WithFields(log.Fields{"node_id": id.Raw(), "interface": boot.Interface}).Info("canopenslave running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-sigCh:
			log.Info("shutting down")
			return
		case now := <-ticker.C:
			elapsedUs := uint32(now.Sub(lastTick).Microseconds())
			lastTick = now
			for _, due := range n.Tick(elapsedUs) {
				if err := bus.Send(due); err != nil {
					log.WithError(err).Warn("failed to send tpdo frame")
				}
			}
		}
	}
}

// resolveStartupId picks the node-ID the dispatcher and SDO server start
// with. A node without a configured id still needs one to derive its SDO
// and NMT COB-IDs; it runs under placeholder node-ID 1 (its SDO server
// answers on 0x601) until CONFIGURE_NODE_ID assigns a real one and the
// node is reset.
func resolveStartupId(boot config.Bootstrap) (node.Id, bool) {
	if boot.NodeId != nil {
		return *boot.NodeId, false
	}
	placeholder, _ := node.New(1)
	return placeholder, true
}

// buildDictionary assembles the minimal mandatory CiA 301 object set. A
// production node would load this from an EDS file via the teacher's
// ini.v1-based parser; this entry point ships a hand-built dictionary so
// the binary runs standalone against the mandatory identity and
// error-control objects.
func buildDictionary() (*od.Dictionary, error) {
	var deviceType od.U32
	var errorRegister od.U8
	var identityVendorId, identityProductCode, identityRevision, identitySerial od.U32

	return od.NewBuilder().
		Add(0x1000, 0, &deviceType, od.ReadOnly()).
		Add(0x1001, 0, &errorRegister, od.ReadOnly()).
		Add(0x1018, 1, &identityVendorId, od.ReadOnly()).
		Add(0x1018, 2, &identityProductCode, od.ReadOnly()).
		Add(0x1018, 3, &identityRevision, od.ReadOnly()).
		Add(0x1018, 4, &identitySerial, od.ReadOnly()).
		Build()
}
