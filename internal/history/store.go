// Package history persists completed board rounds as JSON files so past
// decisions can be listed and replayed.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"quorum/internal/logging"
	"quorum/internal/report"
	"quorum/internal/seat"
)

// Record is one archived board round. Raw seat responses are kept alongside
// the assembled report so a round can be re-audited after the fact.
type Record struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"project_id,omitempty"`
	Request   string              `json:"request"`
	Report    *report.FinalReport `json:"report"`
	Seats     []seat.Outcome      `json:"seats"`
	CreatedAt time.Time           `json:"created_at"`
}

// Store is a directory of round records, one JSON file per round.
type Store struct {
	baseDir string
	logger  logging.Logger
}

// New opens (and creates if needed) a round store rooted at baseDir. A
// leading ~/ expands to the user's home directory.
func New(baseDir string, logger logging.Logger) (*Store, error) {
	if strings.HasPrefix(baseDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		baseDir = filepath.Join(home, baseDir[2:])
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	return &Store{baseDir: baseDir, logger: logging.OrNop(logger)}, nil
}

// Save archives a completed round and returns its record id.
func (s *Store) Save(projectID, requestText string, rep *report.FinalReport, outcomes []seat.Outcome) (string, error) {
	rec := Record{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Request:   requestText,
		Report:    rep,
		Seats:     outcomes,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode round record: %w", err)
	}

	path := s.path(rec.ID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create round record: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("write round record: %w", err)
	}
	s.logger.Debug("Archived round %s (project %q)", rec.ID, projectID)
	return rec.ID, nil
}

// Get loads one archived round by id.
func (s *Store) Get(id string) (*Record, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("round not found: %s", id)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode round %s: %w", id, err)
	}
	return &rec, nil
}

// List returns archived rounds, newest first, optionally filtered by project.
// Unreadable files are skipped with a log line rather than failing the whole
// listing.
func (s *Store) List(projectID string) ([]Record, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read history directory: %w", err)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			s.logger.Warn("Skipping unreadable record %s: %v", entry.Name(), err)
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("Skipping malformed record %s: %v", entry.Name(), err)
			continue
		}
		if projectID != "" && rec.ProjectID != projectID {
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Delete removes one archived round. Deleting a missing round is not an
// error.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Digest summarizes up to limit past rounds as plain text suitable for
// injection into a new request's context. Records are expected newest-first,
// as List returns them.
func Digest(records []Record, limit int) string {
	if limit <= 0 || len(records) == 0 {
		return ""
	}
	if len(records) > limit {
		records = records[:limit]
	}

	var b strings.Builder
	b.WriteString("Previous board decisions:\n")
	for _, rec := range records {
		request := rec.Request
		if len(request) > 120 {
			request = request[:117] + "..."
		}
		verdict := "unknown"
		if rec.Report != nil {
			verdict = string(rec.Report.FinalVerdict)
		}
		fmt.Fprintf(&b, "- %s: %s (%s)\n", rec.CreatedAt.Format("2006-01-02"), request, verdict)
	}
	return strings.TrimRight(b.String(), "\n")
}
