package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	json "github.com/json-iterator/go"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
)

var ErrInvalidRunID = errors.New("invalid run id")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type Counts struct {
	Susceptible int `json:"susceptible"`
	Infected    int `json:"infected"`
	Recovered   int `json:"recovered"`
}

type RunMetadata struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Timestamp time.Time               `json:"timestamp"`
	Seed      int64                   `json:"seed"`
	Dt        float64                 `json:"dt"`
	Duration  float64                 `json:"duration"`
	Steps     int                     `json:"steps"`
	Stopped   bool                    `json:"stopped"`
	Params    config.SimulationConfig `json:"params"`
	Final     Counts                  `json:"final"`
	Metrics   map[string]float64      `json:"metrics"`
}

func CountsOf(c epidemic.Counts) Counts {
	return Counts{Susceptible: c.Susceptible, Infected: c.Infected, Recovered: c.Recovered}
}

// Save writes meta and the run history under a fresh run id, which is
// returned. ID and Timestamp of meta are filled in here.
func (s *Store) Save(meta RunMetadata, history epidemic.History) (string, error) {
	name := meta.Name
	if name == "" {
		name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", sanitize(name), uuid.NewString()[:8])
	meta.Timestamp = time.Now()

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), data, 0644); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, historyFile))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := WriteHistoryCSV(f, history); err != nil {
		return "", err
	}
	return meta.ID, f.Close()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

func (s *Store) LoadHistory(runID string) (epidemic.History, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return epidemic.History{}, err
	}
	f, err := os.Open(filepath.Join(dir, historyFile))
	if err != nil {
		return epidemic.History{}, err
	}
	defer f.Close()

	return ReadHistoryCSV(f)
}

func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || runID != filepath.Base(runID) || strings.HasPrefix(runID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
}

var historyHeader = []string{"time", "susceptible", "infected", "recovered"}

// WriteHistoryCSV writes one row per history entry; state columns are
// percentages of the population.
func WriteHistoryCSV(w io.Writer, h epidemic.History) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(historyHeader); err != nil {
		return err
	}
	for i := 0; i < h.Len(); i++ {
		row := []string{
			strconv.FormatFloat(h.Times[i], 'f', 6, 64),
			strconv.FormatFloat(h.Susceptible[i], 'f', 6, 64),
			strconv.FormatFloat(h.Infected[i], 'f', 6, 64),
			strconv.FormatFloat(h.Recovered[i], 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadHistoryCSV(r io.Reader) (epidemic.History, error) {
	var h epidemic.History

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(historyHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return h, err
	}
	if len(records) == 0 {
		return h, nil
	}

	for i, record := range records[1:] {
		var vals [4]float64
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return epidemic.History{}, fmt.Errorf("history row %d: %w", i+1, err)
			}
			vals[j] = v
		}
		h.Times = append(h.Times, vals[0])
		h.Susceptible = append(h.Susceptible, vals[1])
		h.Infected = append(h.Infected, vals[2])
		h.Recovered = append(h.Recovered, vals[3])
	}
	return h, nil
}
