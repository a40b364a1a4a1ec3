package activity

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/duressd/duressd/pkg/jsonutil"
	"github.com/duressd/duressd/pkg/model"
)

// ChainedRecord is one line in the JSONL activity file. Each record
// carries the hash of its predecessor so tampering with history is
// detectable.
type ChainedRecord struct {
	Event      model.AlertEvent `json:"event"`
	PrevHash   string           `json:"prev_hash"`
	RecordHash string           `json:"record_hash"`
}

// FileSink appends alert events to a hash-chained JSONL file.
type FileSink struct {
	path string
	mu   sync.Mutex
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Append writes one event, chained to the previous record.
func (s *FileSink) Append(ev model.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create activity dir: %w", err)
	}

	prevHash, err := s.lastRecordHash()
	if err != nil {
		return fmt.Errorf("read last record hash: %w", err)
	}

	rec := ChainedRecord{Event: ev, PrevHash: prevHash}
	hash, err := computeRecordHash(rec)
	if err != nil {
		return fmt.Errorf("compute record hash: %w", err)
	}
	rec.RecordHash = hash

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal activity record: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write activity record: %w", err)
	}
	return file.Sync()
}

// Verify walks the file and checks the hash chain.
func (s *FileSink) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open activity log: %w", err)
	}
	defer file.Close()

	var prevHash string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec ChainedRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return fmt.Errorf("parse activity record: %w", err)
		}
		if rec.PrevHash != prevHash {
			return fmt.Errorf("activity chain broken at event %s", rec.Event.ID)
		}
		want, err := computeRecordHash(ChainedRecord{Event: rec.Event, PrevHash: rec.PrevHash})
		if err != nil {
			return err
		}
		if rec.RecordHash != want {
			return fmt.Errorf("activity record hash mismatch at event %s", rec.Event.ID)
		}
		prevHash = rec.RecordHash
	}
	return scanner.Err()
}

func (s *FileSink) lastRecordHash() (string, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	var lastHash string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec ChainedRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue // skip malformed lines
		}
		lastHash = rec.RecordHash
	}
	return lastHash, scanner.Err()
}

func computeRecordHash(rec ChainedRecord) (string, error) {
	// RecordHash is excluded from its own hash input.
	data, err := jsonutil.CanonicalMarshal(ChainedRecord{
		Event:    rec.Event,
		PrevHash: rec.PrevHash,
	})
	if err != nil {
		return "", fmt.Errorf("canonical marshal: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
