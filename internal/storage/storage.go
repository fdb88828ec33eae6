// Package storage persists analysis history for the credit dashboard.
// It uses BoltDB as the underlying storage engine so reviewers can pull up
// the prior assessments of a client across dashboard sessions.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

const analysesBucket = "analyses" // Bucket name for completed analysis records

// AnalysisRecord is one completed client analysis as persisted for review
// history.
type AnalysisRecord struct {
	ClientID    int64     `json:"client_id"`
	Probability float64   `json:"probability"`
	Source      string    `json:"source"`
	Band        string    `json:"band"`
	Action      string    `json:"action"`
	TopFeatures []string  `json:"top_features,omitempty"`
	Ts          time.Time `json:"ts"`
}

// Store provides persistent storage for analysis history using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New creates a new storage instance with the specified data path.
// It initializes the BoltDB database and creates necessary buckets.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "credit-dashboard.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(analysesBucket)); err != nil {
			return fmt.Errorf("create analyses bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StoreAnalysis stores a completed analysis. Records are keyed
// "clientID_timestamp" so per-client history scans stay cheap.
func (s *Store) StoreAnalysis(rec AnalysisRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(analysesBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}

		key := fmt.Sprintf("%d_%d", rec.ClientID, rec.Ts.UnixNano())
		return b.Put([]byte(key), data)
	})
}

// GetAnalyses retrieves the analysis history of one client within a time
// range, oldest first. The range is inclusive of both ends.
func (s *Store) GetAnalyses(clientID int64, start, end time.Time) ([]AnalysisRecord, error) {
	var records []AnalysisRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(analysesBucket))
		c := b.Cursor()

		prefix := []byte(fmt.Sprintf("%d_", clientID))
		startKey := []byte(fmt.Sprintf("%d_%d", clientID, start.UnixNano()))
		endKey := []byte(fmt.Sprintf("%d_%d", clientID, end.UnixNano()))

		for k, v := c.Seek(startKey); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}

			var rec AnalysisRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // Skip malformed records
			}
			records = append(records, rec)
		}

		return nil
	})

	return records, err
}

// LatestAnalysis returns the most recent analysis of one client, or nil when
// the client has no history.
func (s *Store) LatestAnalysis(clientID int64) (*AnalysisRecord, error) {
	var latest *AnalysisRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(analysesBucket))
		c := b.Cursor()

		prefix := []byte(fmt.Sprintf("%d_", clientID))
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec AnalysisRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if latest == nil || rec.Ts.After(latest.Ts) {
				r := rec
				latest = &r
			}
		}

		return nil
	})

	return latest, err
}
