package cron

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aatumaykin/crontabber/internal/logger"
)

// Storage persists the job State as a single JSON document.
type Storage struct {
	filePath string         // Full path to the state file
	logger   *logger.Logger // Logger instance for storage operations
}

// NewStorage creates a Storage backed by filePath. Nothing is touched on
// disk until Save is called.
func NewStorage(filePath string, log *logger.Logger) *Storage {
	if log == nil {
		log = logger.Nop()
	}
	return &Storage{
		filePath: filePath,
		logger:   log,
	}
}

// Path returns the state file location.
func (s *Storage) Path() string {
	return s.filePath
}

// Exists reports whether the state file has been written.
func (s *Storage) Exists() bool {
	_, err := os.Stat(s.filePath)
	return err == nil
}

// Load reads the state file. A missing file yields an empty State.
// Any other failure is a *StoreLoadError.
func (s *Storage) Load() (State, error) {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		s.logger.Error("failed to read state file", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, &StoreLoadError{Path: s.filePath, Err: err}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &StoreLoadError{Path: s.filePath, Err: errors.New("state file is empty")}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Error("failed to parse state file", err,
			logger.Field{Key: "file", Value: s.filePath})
		return nil, &StoreLoadError{Path: s.filePath, Err: err}
	}
	if state == nil {
		state = State{}
	}

	s.logger.Debug("state loaded",
		logger.Field{Key: "jobs", Value: len(state)},
		logger.Field{Key: "file", Value: s.filePath})

	return state, nil
}

// Save writes state using an atomic write: a temporary file is written and
// synced first, then renamed over the state file. Any failure is a
// *StorePersistError and leaves the previous file untouched.
func (s *Storage) Save(state State) error {
	data, err := Encode(state)
	if err != nil {
		return &StorePersistError{Path: s.filePath, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		s.logger.Error("failed to create state directory", err,
			logger.Field{Key: "dir", Value: filepath.Dir(s.filePath)})
		return &StorePersistError{Path: s.filePath, Err: err}
	}

	tmpPath := s.filePath + ".tmp"
	if err := writeSynced(tmpPath, data); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Error("failed to write temporary state file", err,
			logger.Field{Key: "file", Value: tmpPath})
		return &StorePersistError{Path: s.filePath, Err: err}
	}

	if err := os.Rename(tmpPath, s.filePath); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Error("failed to rename temporary state file", err,
			logger.Field{Key: "from", Value: tmpPath},
			logger.Field{Key: "to", Value: s.filePath})
		return &StorePersistError{Path: s.filePath, Err: err}
	}

	s.logger.Debug("state saved",
		logger.Field{Key: "jobs", Value: len(state)},
		logger.Field{Key: "file", Value: s.filePath})

	return nil
}

// Encode renders state in its on-disk form. Map keys are sorted by
// encoding/json, so equal states always encode to identical bytes.
func Encode(state State) ([]byte, error) {
	if state == nil {
		state = State{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return append(data, '\n'), nil
}

func writeSynced(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
