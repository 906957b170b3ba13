// Package dbusout publishes outputs on the session bus and forwards
// client configuration requests to the engine.
package dbusout

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/log"

	"github.com/zhangyaninga/kwin-drm/output"
)

var logger = log.NewLogger("kwin/drm/dbusout")

const (
	DBusServiceName = "org.deepin.dde.KWinDrm1"
	dbusPath        = "/org/deepin/dde/KWinDrm1"
	dbusInterface   = DBusServiceName
)

// Target is the engine side of an output. Its methods are only called
// through the invoke function handed to NewManager.
type Target interface {
	ApplyChanges(c *output.ChangeSet)
	RequestDpms(mode output.DpmsMode)
}

// Manager is the root object listing the published outputs.
type Manager struct {
	service *dbusutil.Service
	invoke  func(func())
	// onEmit sees every signal, exported or not
	onEmit func(o *Output, signal string, args []interface{})

	mu      sync.Mutex
	outputs map[string]*Output

	PropsMu sync.RWMutex
	Outputs []dbus.ObjectPath
}

// NewManager exports the root object. service may be nil, which keeps
// everything local.
func NewManager(service *dbusutil.Service, invoke func(func())) (*Manager, error) {
	m := &Manager{
		service: service,
		invoke:  invoke,
		outputs: make(map[string]*Output),
	}
	if service != nil {
		if err := service.Export(dbusPath, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (*Manager) GetInterfaceName() string {
	return dbusInterface
}

// Publisher creates the object of a newly connected output. It is
// exported once the output publishes its device information.
func (m *Manager) Publisher(name string) output.Publisher {
	o := &Output{
		m:       m,
		service: m.service,
		path:    outputPath(name),
	}
	m.mu.Lock()
	if old := m.outputs[name]; old != nil {
		m.mu.Unlock()
		old.stopExport()
		m.mu.Lock()
	}
	m.outputs[name] = o
	m.mu.Unlock()
	return publisher{o}
}

// Bind attaches the engine output serving client requests for name.
func (m *Manager) Bind(name string, target Target) {
	m.mu.Lock()
	o := m.outputs[name]
	m.mu.Unlock()
	if o == nil {
		logger.Warningf("bind: no output %s", name)
		return
	}
	o.mu.Lock()
	o.target = target
	o.mu.Unlock()
}

func (m *Manager) Output(name string) *Output {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outputs[name]
}

func (m *Manager) remove(o *Output) {
	m.mu.Lock()
	for name, x := range m.outputs {
		if x == o {
			delete(m.outputs, name)
		}
	}
	m.mu.Unlock()
	m.updatePropOutputs()
}

func (m *Manager) updatePropOutputs() {
	m.mu.Lock()
	var paths []dbus.ObjectPath
	for _, o := range m.outputs {
		if o.isExported() {
			paths = append(paths, o.path)
		}
	}
	m.mu.Unlock()
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })

	m.PropsMu.Lock()
	m.Outputs = paths
	m.PropsMu.Unlock()
	if m.service != nil {
		err := m.service.EmitPropertyChanged(m, "Outputs", paths)
		if err != nil {
			logger.Warning(err)
		}
	}
}

// outputPath maps a connector name to an object path element; "HDMI-A-1"
// becomes ".../Output_HDMI_A_1".
func outputPath(name string) dbus.ObjectPath {
	var sb strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			sb.WriteRune(r)
			continue
		}
		if r < 0x80 {
			sb.WriteByte('_')
			continue
		}
		sb.WriteString(strconv.Itoa(int(r)))
	}
	return dbus.ObjectPath(dbusPath + "/Output_" + sb.String())
}
