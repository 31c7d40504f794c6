package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

var ErrNotFound = errors.New("storage: report not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// Report describes one headless bench run.
type Report struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Profile     string    `json:"profile"`
	LowEnd      bool      `json:"low_end"`
	Backend     string    `json:"backend"`
	Kernel      string    `json:"kernel"`
	GridSide    int       `json:"grid_side"`
	Frames      int       `json:"frames"`
	FrameCostMS float64   `json:"frame_cost_ms"`
	BudgetMS    float64   `json:"budget_ms"`
	Window      int       `json:"window"`
	Windows     int       `json:"windows"`
	// DegradedAt is the frame on which effects were switched off, 0 if never.
	DegradedAt int                `json:"degraded_at,omitempty"`
	Effects    bool               `json:"effects"`
	TimeScale  float64            `json:"time_scale"`
	Stats      map[string]float64 `json:"stats"`
}

// Frame is one row of a report's frame log.
type Frame struct {
	Index   int
	MS      float64
	Effects bool
}

var frameHeader = []string{"frame", "ms", "effects"}

// Save writes the report metadata and its frame log under a new run
// directory and returns the run ID.
func (s *Store) Save(r Report, frames []Frame) (string, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	if r.ID == "" {
		r.ID = fmt.Sprintf("bench_%s_%d", r.Backend, r.Timestamp.UnixNano())
	}
	runDir := filepath.Join(s.baseDir, r.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(frameHeader); err != nil {
		return "", err
	}
	for _, f := range frames {
		row := []string{
			strconv.Itoa(f.Index),
			strconv.FormatFloat(f.MS, 'f', 4, 64),
			strconv.FormatBool(f.Effects),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return r.ID, nil
}

// List returns every readable report, oldest first. Directories without
// valid metadata are skipped.
func (s *Store) List() ([]Report, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Report{}, nil
		}
		return nil, err
	}

	reports := make([]Report, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		r, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		reports = append(reports, *r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.Before(reports[j].Timestamp)
	})
	return reports, nil
}

func (s *Store) Load(runID string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}
	return &r, nil
}

// LoadFrames reads a report's frame log. Malformed rows are skipped.
func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Frame{}, nil
	}

	frames := make([]Frame, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < len(frameHeader) {
			continue
		}
		idx, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		ms, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		effects, err := strconv.ParseBool(record[2])
		if err != nil {
			continue
		}
		frames = append(frames, Frame{Index: idx, MS: ms, Effects: effects})
	}
	return frames, nil
}

// Durations extracts the frame times of a frame log.
func Durations(frames []Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.MS
	}
	return out
}
