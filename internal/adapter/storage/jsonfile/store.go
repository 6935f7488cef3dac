package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/seu-repo/voice-order-assistant/internal/domain"
)

// Encode renders the snapshot document: an object keyed by order id, two-space indented,
// with non-ASCII text and HTML characters left as-is.
func Encode(orders map[string]domain.Order) ([]byte, error) {
	if orders == nil {
		orders = map[string]domain.Order{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(orders); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a snapshot document. Empty input is an empty snapshot.
func Decode(data []byte) (map[string]domain.Order, error) {
	orders := make(map[string]domain.Order)
	if len(bytes.TrimSpace(data)) == 0 {
		return orders, nil
	}
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("decode order snapshot: %w", err)
	}
	return orders, nil
}

// Store keeps the order snapshot in a single JSON file.
type Store struct {
	path string
	log  *zap.Logger
}

func NewStore(path string, log *zap.Logger) *Store {
	return &Store{path: path, log: log}
}

func (s *Store) Load(ctx context.Context) (map[string]domain.Order, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Info("No order file yet, starting empty", zap.String("path", s.path))
		return make(map[string]domain.Order), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return Decode(data)
}

// Save replaces the file atomically through a temp file in the same directory.
func (s *Store) Save(ctx context.Context, orders map[string]domain.Order) error {
	data, err := Encode(orders)
	if err != nil {
		return fmt.Errorf("encode order snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	s.log.Debug("Order snapshot written", zap.String("path", s.path), zap.Int("orders", len(orders)))
	return nil
}

// Ping checks that the snapshot directory is writable.
func (s *Store) Ping(ctx context.Context) error {
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}
