package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const fileName = "store.json"

// FileStore keeps every key in one JSON object on disk. Every call reads the
// file again, so writes made by another process (the CLI while the assistant
// runs) are seen by the next Get and kept by the next Set.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore creates the store in dir and checks that an existing file
// parses.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	fs := &FileStore{filePath: filepath.Join(dir, fileName)}
	data, err := fs.load()
	if err != nil {
		return nil, err
	}
	log.Printf("📋 Loaded %d stored keys from %s", len(data), fs.filePath)
	return fs, nil
}

func (fs *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, err := fs.load()
	if err != nil {
		return nil, err
	}
	v, ok := data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (fs *FileStore) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("value for %q is not valid JSON", key)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, err := fs.load()
	if err != nil {
		return err
	}
	data[key] = append(json.RawMessage(nil), value...)
	return fs.save(data)
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, err := fs.load()
	if err != nil {
		return err
	}
	if _, ok := data[key]; !ok {
		return nil
	}
	delete(data, key)
	return fs.save(data)
}

func (fs *FileStore) Close() error { return nil }

// load reads the current file. A missing or empty file is an empty store.
func (fs *FileStore) load() (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)
	raw, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", fileName, err)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}
	return data, nil
}

// save replaces the file atomically; the caller holds mu.
func (fs *FileStore) save(data map[string]json.RawMessage) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", fileName, err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fileName, err)
	}
	return nil
}
