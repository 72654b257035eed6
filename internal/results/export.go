package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/expressfrac/internal/frac"
)

// Metadata describes an exported run.
type Metadata struct {
	RunID      string    `json:"run_id"`
	Model      string    `json:"model"`
	Integrator string    `json:"integrator"`
	Exported   time.Time `json:"exported"`
	Steps      int       `json:"steps"`
	FinalTime  float64   `json:"final_time"`
}

type exportStep struct {
	Time     float64      `json:"time"`
	Summary  frac.Summary `json:"summary"`
	Xc       []float64    `json:"xc,omitempty"`
	Width    []float64    `json:"width,omitempty"`
	Pressure []float64    `json:"pressure,omitempty"`
}

type exportData struct {
	Metadata
	Results []exportStep `json:"results"`
}

func (s *Store) metadata(runID string, req frac.Request) Metadata {
	meta := Metadata{
		RunID:      runID,
		Model:      req.Model,
		Integrator: req.Integrator,
		Exported:   time.Now(),
		Steps:      s.Len(),
	}
	if last, ok := s.Last(); ok {
		meta.FinalTime = last.Time
	}
	return meta
}

// WriteJSON encodes metadata and every step, fields included.
func (s *Store) WriteJSON(w io.Writer, runID string, req frac.Request) error {
	data := exportData{Metadata: s.metadata(runID, req), Results: make([]exportStep, len(s.steps))}
	for i, st := range s.steps {
		data.Results[i] = exportStep{
			Time:     st.Time,
			Summary:  st.Summary,
			Xc:       st.Fields.Xc,
			Width:    st.Fields.Width,
			Pressure: st.Fields.Pressure,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

var summaryHeader = []string{
	"time", "front_location", "max_width", "net_pressure",
	"injected_volume", "fracture_volume", "leaked_volume", "efficiency",
}

// WriteCSV writes one summary row per step.
func (s *Store) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, st := range s.steps {
		sm := st.Summary
		row := []string{
			formatFloat(st.Time),
			formatFloat(sm.FrontLocation),
			formatFloat(sm.MaxWidth),
			formatFloat(sm.NetPressure),
			formatFloat(sm.InjectedVolume),
			formatFloat(sm.FractureVolume),
			formatFloat(sm.LeakedVolume),
			formatFloat(sm.Efficiency),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// ExportFile writes the store to path, choosing the format from the
// extension (.json or .csv).
func (s *Store) ExportFile(path, runID string, req frac.Request) error {
	ext := filepath.Ext(path)
	if ext != ".json" && ext != ".csv" {
		return fmt.Errorf("unsupported export format: %q", ext)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if ext == ".json" {
		err = s.WriteJSON(f, runID, req)
	} else {
		err = s.WriteCSV(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}
