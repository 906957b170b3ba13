package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/zhangyaninga/kwin-drm/output"
)

// unknown stands in for identity fields the EDID does not carry.
const unknown = "unknown"

// Override replaces the physical size of one monitor, in millimeters.
type Override struct {
	EisaID       string `yaml:"eisaId"`
	MonitorName  string `yaml:"monitorName"`
	SerialNumber string `yaml:"serialNumber"`
	PhysicalSize [2]int `yaml:"physicalSize"`
}

type overrideKey struct {
	eisaID, monitorName, serial string
}

func newOverrideKey(eisaID, monitorName, serial string) overrideKey {
	orUnknown := func(s string) string {
		if s == "" {
			return unknown
		}
		return s
	}
	return overrideKey{orUnknown(eisaID), orUnknown(monitorName), orUnknown(serial)}
}

// Overrides is the physical size table. It is safe for concurrent use.
type Overrides struct {
	filename string

	mu      sync.RWMutex
	entries map[overrideKey]output.Size

	watcher *fsnotify.Watcher
	// reloaded is notified after every reload triggered by the watcher.
	reloaded func()
}

// LoadOverrides reads the table in filename. A missing file yields an
// empty table.
func LoadOverrides(filename string) (*Overrides, error) {
	o := &Overrides{filename: filename}
	if err := o.reload(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Overrides) reload() error {
	// #nosec G304
	data, err := os.ReadFile(o.filename)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	var list []Override
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &list); err != nil {
			return xerrors.Errorf("parsing %s: %w", o.filename, err)
		}
	}

	entries := make(map[overrideKey]output.Size, len(list))
	for _, e := range list {
		size := output.Size{Width: e.PhysicalSize[0], Height: e.PhysicalSize[1]}
		if size.IsEmpty() {
			logger.Warningf("%s: ignoring size %v for %s/%s/%s", o.filename, size,
				e.EisaID, e.MonitorName, e.SerialNumber)
			continue
		}
		entries[newOverrideKey(e.EisaID, e.MonitorName, e.SerialNumber)] = size
	}

	o.mu.Lock()
	o.entries = entries
	o.mu.Unlock()
	logger.Debugf("loaded %d size overrides from %s", len(entries), o.filename)
	return nil
}

// PhysicalSize looks up the monitor. Empty fields match entries that
// leave them empty or say "unknown".
func (o *Overrides) PhysicalSize(eisaID, monitorName, serial string) (output.Size, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	size, ok := o.entries[newOverrideKey(eisaID, monitorName, serial)]
	if ok {
		logger.Warningf("overriding physical size of %s/%s/%s to %v", eisaID, monitorName, serial, size)
	}
	return size, ok
}

func (o *Overrides) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.entries)
}

// Watch reloads the table whenever the file is written, created or
// removed. The directory is watched so that editors replacing the file
// are noticed.
func (o *Overrides) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(o.filename)
	err = os.MkdirAll(dir, 0755)
	if err == nil {
		err = w.Add(dir)
	}
	if err != nil {
		w.Close()
		return xerrors.Errorf("watching %s: %w", dir, err)
	}
	o.watcher = w
	go o.listenEvents(w)
	return nil
}

func (o *Overrides) listenEvents(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(o.filename) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			logger.Debug("event", ev)
			if err := o.reload(); err != nil {
				logger.Warning(err)
				continue
			}
			if o.reloaded != nil {
				o.reloaded()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warning("error", err)
		}
	}
}

func (o *Overrides) Close() error {
	if o.watcher == nil {
		return nil
	}
	return o.watcher.Close()
}
