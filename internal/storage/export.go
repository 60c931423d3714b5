package storage

import (
	"io"

	json "github.com/json-iterator/go"
)

type ExportData struct {
	Run         RunMetadata `json:"run"`
	Samples     int         `json:"samples"`
	Times       []float64   `json:"times"`
	Susceptible []float64   `json:"susceptible"`
	Infected    []float64   `json:"infected"`
	Recovered   []float64   `json:"recovered"`
}

// ExportJSON writes the metadata and full history of a stored run.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	h, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:         *meta,
		Samples:     h.Len(),
		Times:       h.Times,
		Susceptible: h.Susceptible,
		Infected:    h.Infected,
		Recovered:   h.Recovered,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportCSV copies the stored history of a run to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	h, err := s.LoadHistory(runID)
	if err != nil {
		return err
	}
	return WriteHistoryCSV(w, h)
}
