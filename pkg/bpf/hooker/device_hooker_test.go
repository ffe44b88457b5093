package hooker

import (
	"encoding/binary"
	"log"
	"net"
	"os"
	"testing"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/asm"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/bpf/common"
	"github.com/dinoallo/sealos-nm-bytecount/pkg/host"
	loglib "github.com/dinoallo/sealos-nm-bytecount/pkg/log"
	zaplog "github.com/dinoallo/sealos-nm-bytecount/pkg/log/zap"
	"github.com/jsimonetti/rtnetlink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var (
	iface        = "test42"
	globalLogger loglib.Logger
	testingHook  *ebpf.Program
)

func requireTestingEnv(t *testing.T) {
	if testingHook == nil {
		t.Skip("attaching tc programs requires root and a dummy interface")
	}
}

func TestDeviceHookerFilterOperation(t *testing.T) {
	requireTestingEnv(t)
	hooker, err := NewDeviceHooker(iface, globalLogger)
	require.NoError(t, err)
	require.NoError(t, hooker.Init())
	defer hooker.Close()
	t.Run("the clsact qdisc is reused", func(t *testing.T) {
		again, err := NewDeviceHooker(iface, globalLogger)
		require.NoError(t, err)
		assert.NoError(t, again.Init())
		assert.NoError(t, again.Close())
	})
	t.Run("add filter on the ingress side", func(t *testing.T) {
		assert.NoError(t, hooker.AddFilter("ingress_filter", testingHook, common.TC_DIR_INGRESS))
	})
	t.Run("add filter on the egress side", func(t *testing.T) {
		assert.NoError(t, hooker.AddFilter("egress_filter", testingHook, common.TC_DIR_EGRESS))
	})
	t.Run("names are unique", func(t *testing.T) {
		err := hooker.AddFilter("egress_filter", testingHook, common.TC_DIR_EGRESS)
		assert.ErrorIs(t, err, ErrFilterExists)
	})
	t.Run("remove filter", func(t *testing.T) {
		assert.NoError(t, hooker.RemoveFilter("ingress_filter"))
		// removing twice is a no-op
		assert.NoError(t, hooker.RemoveFilter("ingress_filter"))
	})
}

func TestTCXHookerFilterOperation(t *testing.T) {
	requireTestingEnv(t)
	hooker, err := NewTCXHooker(iface, globalLogger)
	require.NoError(t, err)
	require.NoError(t, hooker.Init())
	defer hooker.Close()
	if err := hooker.AddFilter("ingress_link", testingHook, common.TC_DIR_INGRESS); err != nil {
		t.Skipf("tcx is not supported here: %v", err)
	}
	assert.NoError(t, hooker.AddFilter("egress_link", testingHook, common.TC_DIR_EGRESS))
	assert.NoError(t, hooker.RemoveFilter("egress_link"))
}

func TestUninitializedHookers(t *testing.T) {
	for _, h := range []Hooker{
		&DeviceHooker{iface: iface, logger: globalLogger},
		&TCXHooker{iface: iface, logger: globalLogger},
	} {
		err := h.AddFilter("filter", nil, common.TC_DIR_INGRESS)
		assert.ErrorIs(t, err, ErrProgramHookInvalid)
		if testingHook != nil {
			err = h.AddFilter("filter", testingHook, common.TC_DIR_INGRESS)
			assert.ErrorIs(t, err, ErrHookerNotInitialized)
		}
	}
}

func TestNewHooker(t *testing.T) {
	h, err := NewHooker(common.ATTACH_MODE_TC, iface, globalLogger)
	if assert.NoError(t, err) {
		assert.IsType(t, &DeviceHooker{}, h)
	}
	h, err = NewHooker(common.ATTACH_MODE_TCX, iface, globalLogger)
	if assert.NoError(t, err) {
		assert.IsType(t, &TCXHooker{}, h)
	}
	h, err = NewHooker(common.ATTACH_MODE_AUTO, iface, globalLogger)
	assert.NoError(t, err)
	assert.NotNil(t, h)
	_, err = NewHooker(common.AttachMode(42), iface, globalLogger)
	assert.ErrorIs(t, err, common.ErrUnknownAttachMode)
}

func TestHtons(t *testing.T) {
	order, err := host.GetEndian()
	require.NoError(t, err)
	v, err := htons(unix.ETH_P_ALL)
	require.NoError(t, err)
	if order == binary.LittleEndian {
		assert.Equal(t, uint16(0x0300), v)
	} else {
		assert.Equal(t, uint16(0x0003), v)
	}
}

func setupDummyInterface(iface string) (*rtnetlink.Conn, error) {
	con, err := rtnetlink.Dial(nil)
	if err != nil {
		return &rtnetlink.Conn{}, err
	}
	if err := con.Link.New(&rtnetlink.LinkMessage{
		Family: unix.AF_UNSPEC,
		Type:   unix.ARPHRD_NETROM,
		Index:  0,
		Flags:  unix.IFF_UP,
		Change: unix.IFF_UP,
		Attributes: &rtnetlink.LinkAttributes{
			Name: iface,
			Info: &rtnetlink.LinkInfo{Kind: "dummy"},
		},
	}); err != nil {
		return con, err
	}
	return con, err
}

func setUpTestingEnv(logger loglib.Logger) (cleanUp func()) {
	cleanUp = func() {}
	if os.Geteuid() != 0 {
		return
	}
	testIfaceExists := false
	interfaces, err := net.Interfaces()
	if err != nil {
		logger.Errorf("unable to check if testing interface exists: %v", err)
		return
	}
	for _, _iface := range interfaces {
		if _iface.Name == iface {
			testIfaceExists = true
		}
	}
	if !testIfaceExists {
		rtnl, err := setupDummyInterface(iface)
		if err != nil {
			logger.Errorf("could not setup dummy interface: %v", err)
			return
		}
		devID, err := net.InterfaceByName(iface)
		if err != nil {
			logger.Errorf("could not get interface ID: %v", err)
			rtnl.Close()
			return
		}
		cleanUp = func() {
			if err := rtnl.Link.Delete(uint32(devID.Index)); err != nil {
				logger.Errorf("could not delete interface: %v", err)
			}
			rtnl.Close()
		}
	}
	spec := ebpf.ProgramSpec{
		Name: "test",
		Type: ebpf.SchedCLS,
		Instructions: asm.Instructions{
			// Set exit code to 0
			asm.Mov.Imm(asm.R0, 0),
			asm.Return(),
		},
		License: "GPL",
	}
	prog, err := ebpf.NewProgram(&spec)
	if err != nil {
		logger.Errorf("failed to load eBPF program: %v", err)
		return
	}
	testingHook = prog
	return
}

func TestMain(m *testing.M) {
	logger, err := zaplog.NewZap(true)
	if err != nil {
		log.Printf("could not setup log: %v", err)
		os.Exit(1)
	}
	globalLogger = logger
	cleanUp := setUpTestingEnv(logger)
	code := m.Run()
	if testingHook != nil {
		testingHook.Close()
	}
	cleanUp()
	os.Exit(code)
}
