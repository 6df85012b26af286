// Package history keeps a record of every URL the downloader has processed, so later runs can skip work that has
// already been done.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/diff/v3"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var Buckets = struct {
	Metadata  []byte
	Downloads []byte
}{
	Metadata:  []byte("__metadata__"),
	Downloads: []byte("downloads"),
}

var MetadataKeys = struct {
	Version []byte
}{
	Version: []byte("version"),
}

const currentVersion = 1

var (
	ErrUnsupportedVersion = errors.New("unsupported history database version")
)

type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

type Record struct {
	ID        string    `json:"id" diff:"-"`
	URL       string    `json:"url" diff:"url"`
	Provider  string    `json:"provider,omitempty" diff:"provider"`
	Title     string    `json:"title,omitempty" diff:"title"`
	Path      string    `json:"path,omitempty" diff:"path"`
	Size      int64     `json:"size,omitempty" diff:"size"`
	Status    Status    `json:"status" diff:"status"`
	Error     string    `json:"error,omitempty" diff:"error"`
	UpdatedAt time.Time `json:"updated_at" diff:"-"`
}

// IsDone returns true if the record describes a completed download whose file is still present.
func (r *Record) IsDone() bool {
	if r == nil || r.Status != StatusComplete || r.Path == "" {
		return false
	}
	info, err := os.Stat(r.Path)
	return err == nil && info.Size() > 0
}

type Store interface {
	// Get returns the record for url, or (nil, nil) if there is none.
	Get(url string) (*Record, error)
	List() ([]Record, error)
	// Put inserts or replaces the record for Record.URL, assigning Record.ID and Record.UpdatedAt.
	Put(record *Record) error
	Delete(url string) error
	Close() error
}

type store struct {
	*bbolt.DB
	log *zap.SugaredLogger
}

func Open(path string, logger *zap.Logger) (Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		// Ensure buckets exist
		metadata, err := tx.CreateBucketIfNotExists(Buckets.Metadata)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(Buckets.Downloads); err != nil {
			return err
		}

		// Get the current version of the database
		var version int
		if versionBytes := metadata.Get(MetadataKeys.Version); versionBytes != nil {
			if err := json.Unmarshal(versionBytes, &version); err != nil {
				return err
			}
		}
		if version > currentVersion {
			return fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}

		versionBytes, err := json.Marshal(currentVersion)
		if err != nil {
			return err
		}
		return metadata.Put(MetadataKeys.Version, versionBytes)
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &store{DB: db, log: logger.Sugar().Named("history")}, nil
}

func (s *store) Get(url string) (*Record, error) {
	var record *Record
	err := s.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(Buckets.Downloads).Get([]byte(url))
		if data == nil {
			return nil
		}
		record = &Record{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *store) List() (records []Record, err error) {
	err = s.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Downloads).ForEach(func(k, v []byte) error {
			var record Record
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store) Put(record *Record) error {
	if record.URL == "" {
		return fmt.Errorf("record has no URL")
	}
	return s.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(Buckets.Downloads)
		key := []byte(record.URL)
		if existing := bucket.Get(key); existing != nil {
			var previous Record
			if err := json.Unmarshal(existing, &previous); err != nil {
				return err
			}
			record.ID = previous.ID
			s.logChanges(&previous, record)
		}
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
}

func (s *store) Delete(url string) error {
	return s.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(Buckets.Downloads).Delete([]byte(url))
	})
}

func (s *store) logChanges(previous, current *Record) {
	changes, err := diff.Diff(previous, current)
	if err != nil {
		s.log.Warnf("failed to diff history records: %v", err)
		return
	}
	for _, change := range changes {
		s.log.Debugw("history record changed", "url", current.URL, "field", change.Path, "from", change.From, "to", change.To)
	}
}
