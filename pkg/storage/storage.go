// Package storage persists keyboard settings using LittleFS.
// It handles atomic writes, version checking, and cleanup of temporary files.
package storage

import (
	"errors"
	"os"
	"strings"

	"github.com/tuffrabit/tinygo-bbq10kbd/pkg/config"

	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/littlefs"
)

const (
	configDir    = "/config"
	settingsFile = "/config/keyboard.bin"
	tempSuffix   = ".tmp"
)

var (
	ErrNotFound        = errors.New("settings not found")
	ErrInvalidSettings = errors.New("invalid settings data")
	ErrVersionMismatch = errors.New("settings version mismatch")
)

// Manager handles settings persistence using LittleFS.
type Manager struct {
	fs       *littlefs.LFS
	blockDev tinyfs.BlockDevice
	mounted  bool
}

// New initializes the storage system with the given block device.
// It mounts the filesystem and performs boot-time cleanup.
// If format is true and mount fails, it will format the filesystem.
func New(blockDev tinyfs.BlockDevice, format bool) (*Manager, error) {
	lfs := littlefs.New(blockDev)

	// Conservative settings for reliability on RP2040 flash
	lfs.Configure(&littlefs.Config{
		CacheSize:     512,
		LookaheadSize: 128,
	})

	err := lfs.Mount()
	if err != nil {
		if !format {
			return nil, err
		}
		if err := lfs.Format(); err != nil {
			return nil, err
		}
		if err := lfs.Mount(); err != nil {
			return nil, err
		}
	}

	m := &Manager{
		fs:       lfs,
		blockDev: blockDev,
		mounted:  true,
	}

	m.bootCleanup()

	// A settings file with a stale format version gets wiped. The host
	// falls back to defaults and re-saves on the next change.
	if m.staleVersion() {
		m.fs.Remove(settingsFile)
	}

	return m, nil
}

// Close unmounts the filesystem.
func (m *Manager) Close() error {
	if m.mounted {
		m.mounted = false
		return m.fs.Unmount()
	}
	return nil
}

// bootCleanup removes temporary files left over from interrupted writes.
func (m *Manager) bootCleanup() {
	f, err := m.fs.Open(configDir)
	if err != nil {
		return
	}
	defer f.Close()

	if !f.IsDir() {
		return
	}
	entries, err := f.Readdir(-1)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, tempSuffix) {
			m.fs.Remove(configDir + "/" + name)
		}
	}
}

// staleVersion reports whether a stored settings file carries a format
// version other than the current one. A missing file is not stale.
func (m *Manager) staleVersion() bool {
	var s config.Settings
	if err := m.Load(&s); err != nil {
		return false
	}
	return s.Version != config.CurrentVersion
}

// ensureDir creates the config directory if it doesn't exist.
func (m *Manager) ensureDir() error {
	if err := m.fs.Mkdir(configDir, 0755); err != nil && !isExist(err) {
		return err
	}
	return nil
}

// isExist checks if an error is "already exists".
// LittleFS errors don't always match os.IsExist, so we check the message too.
func isExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "already exists")
}

// isNotExist checks if an error means "no such file".
func isNotExist(err error) bool {
	if err == nil {
		return false
	}
	if os.IsNotExist(err) {
		return true
	}
	return strings.Contains(err.Error(), "No directory entry")
}

// Load reads the persisted settings.
func (m *Manager) Load(s *config.Settings) error {
	f, err := m.fs.Open(settingsFile)
	if err != nil {
		if isNotExist(err) {
			return ErrNotFound
		}
		return err
	}
	defer f.Close()

	buf := make([]byte, config.SettingsSize)
	n, err := f.Read(buf)
	if err != nil {
		return err
	}
	if n != config.SettingsSize {
		return ErrInvalidSettings
	}

	return s.UnmarshalBinary(buf)
}

// Save persists the settings atomically, stamping the current format
// version.
func (m *Manager) Save(s *config.Settings) error {
	if err := m.ensureDir(); err != nil {
		return err
	}

	s.Version = config.CurrentVersion

	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}

	return m.atomicWrite(settingsFile, data)
}

// Wipe removes the persisted settings.
func (m *Manager) Wipe() error {
	return m.fs.Remove(settingsFile)
}

// atomicWrite writes data to a temporary file, syncs it, then renames.
// This ensures the settings file is never in a partially written state.
func (m *Manager) atomicWrite(filepath string, data []byte) error {
	tempPath := filepath + tempSuffix

	// Remove temp file if it exists (from interrupted previous write)
	m.fs.Remove(tempPath)

	f, err := m.fs.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		m.fs.Remove(tempPath)
		return err
	}

	// Sync ensures data hits flash before the rename
	if syncer, ok := f.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			f.Close()
			m.fs.Remove(tempPath)
			return err
		}
	}

	if err := f.Close(); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	// LittleFS rename doesn't replace, remove the old file first
	m.fs.Remove(filepath)

	if err := m.fs.Rename(tempPath, filepath); err != nil {
		m.fs.Remove(tempPath)
		return err
	}

	return nil
}
