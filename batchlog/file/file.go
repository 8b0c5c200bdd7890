// Package file stores batch logs in one JSON document, {"emailLogs":[...]}.
// Every Append rewrites the document through a temp file and an atomic rename.
package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pure-golang/bulkmail/batchlog"
)

var _ batchlog.Store = (*Store)(nil)

var tracer = otel.Tracer("github.com/pure-golang/bulkmail/batchlog/file")

// Config contains the location of the log document.
type Config struct {
	Path string `envconfig:"LOG_FILE_PATH" default:"data/email-logs.json"`
}

type document struct {
	EmailLogs []batchlog.BatchLog `json:"emailLogs"`
}

// Store is safe for concurrent use within one process. Two processes must not share a Path.
type Store struct {
	mx   sync.RWMutex
	path string
}

// New creates the parent directory of cfg.Path if needed. A missing file is an empty store.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, errors.Wrapf(err, "failed to create directory for %s", cfg.Path)
	}
	return &Store{path: cfg.Path}, nil
}

// ReadAll returns the logs in stored order.
func (s *Store) ReadAll(ctx context.Context) ([]batchlog.BatchLog, error) {
	_, span := tracer.Start(ctx, "FileStore.ReadAll")
	defer span.End()

	s.mx.RLock()
	defer s.mx.RUnlock()

	doc, err := s.load()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("batchlog.count", len(doc.EmailLogs)))
	span.SetStatus(codes.Ok, "")
	return doc.EmailLogs, nil
}

// Append reads the document, appends log and replaces the file atomically.
func (s *Store) Append(ctx context.Context, log batchlog.BatchLog) error {
	_, span := tracer.Start(ctx, "FileStore.Append")
	defer span.End()
	span.SetAttributes(attribute.String("batchlog.id", log.ID))

	s.mx.Lock()
	defer s.mx.Unlock()

	doc, err := s.load()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	doc.EmailLogs = append(doc.EmailLogs, log)

	if err := s.replace(doc); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *Store) load() (document, error) {
	var doc document

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, errors.Wrapf(err, "failed to read %s", s.path)
	}
	if len(data) == 0 {
		return doc, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, errors.Wrapf(err, "failed to decode %s", s.path)
	}
	return doc, nil
}

// replace writes doc next to the target, syncs it and renames it over the target.
func (s *Store) replace(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode logs")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", s.path)
	}

	return syncDir(dir)
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return errors.Wrap(err, "failed to open log directory")
	}
	defer d.Close()

	// some filesystems do not support fsync on directories
	if err := d.Sync(); err != nil && !errors.Is(err, os.ErrInvalid) {
		return errors.Wrap(err, "failed to sync log directory")
	}
	return nil
}
