package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/klytics/sheetkit/cmd/version"
	"github.com/klytics/sheetkit/internal/chart"
	"github.com/klytics/sheetkit/internal/history"
	"github.com/klytics/sheetkit/internal/output"
	"github.com/klytics/sheetkit/internal/storage"
)

var funcMap = template.FuncMap{
	"pct": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
	"num": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
	"fixed": func(f float64) string {
		return strconv.FormatFloat(f, 'f', 2, 64)
	},
}

type fileLink struct {
	ID          string
	Name        string
	Rows        int
	ByReference bool
	Selected    bool
	Current     bool
}

type bar struct {
	Label string
	Value float64
	Pct   float64
}

type chartData struct {
	Value   string
	Label   string
	Numeric []string
	Bars    []bar
	Summary chart.Summary
}

type pageData struct {
	View    string
	Version string
	Files   []fileLink
	Current *history.FileRecord
	Columns []string
	Rows    [][]string
	Chart   *chartData
	Error   string
}

// page collects what the data and chart pages share. The file shown is the
// "id" query parameter when given, the selection otherwise. Viewing never
// changes the selection.
func (s *Server) page(r *http.Request, view string) (pageData, []string, [][]string, error) {
	pd := pageData{View: view, Version: version.Version}

	sel, hasSel := s.store.Selected()
	current := sel
	if ref := r.URL.Query().Get("id"); ref != "" {
		rec, err := s.store.Resolve(ref)
		if err != nil {
			return pd, nil, nil, err
		}
		current, hasSel = rec, true
	}

	for _, f := range s.store.Files() {
		pd.Files = append(pd.Files, fileLink{
			ID:          f.ID,
			Name:        f.Name,
			Rows:        len(f.Rows),
			ByReference: f.ByReference(),
			Selected:    f.ID == sel.ID,
			Current:     hasSel && f.ID == current.ID,
		})
	}
	if !hasSel {
		return pd, nil, nil, nil
	}
	pd.Current = &current

	columns, rows, err := s.im.Rows(current)
	if err != nil {
		return pd, nil, nil, err
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		line := make([]string, len(columns))
		for j, c := range columns {
			line[j] = truncate(row.Get(c).String(), s.MaxColWidth)
		}
		cells[i] = line
	}
	return pd, columns, cells, nil
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	pd, columns, cells, err := s.page(r, "data")
	if err != nil {
		pd.Error = err.Error()
		status = statusFor(err)
	}
	pd.Columns = columns
	pd.Rows = cells
	s.render(w, status, "data.html", pd)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	pd, _, _, err := s.page(r, "chart")
	if err != nil {
		pd.Error = err.Error()
		status = statusFor(err)
	} else if pd.Current != nil {
		q := r.URL.Query()
		if pd.Chart, err = s.chartData(*pd.Current, q.Get("label"), q.Get("value")); err != nil {
			pd.Error = err.Error()
			status = http.StatusUnprocessableEntity
		}
	}
	s.render(w, status, "chart.html", pd)
}

func (s *Server) chartData(rec history.FileRecord, label, value string) (*chartData, error) {
	columns, rows, err := s.im.Rows(rec)
	if err != nil {
		return nil, err
	}
	series, err := chart.Build(columns, rows, label, value)
	if err != nil {
		return nil, err
	}
	sum, err := series.Summary()
	if err != nil {
		return nil, err
	}

	cd := &chartData{
		Value:   series.ValueColumn,
		Label:   series.LabelColumn,
		Numeric: chart.NumericColumns(columns, rows),
		Summary: sum,
	}
	peak := 0.0
	for _, p := range series.Points {
		peak = max(peak, abs(p.Value))
	}
	for _, p := range series.Points {
		b := bar{Label: p.Label, Value: p.Value}
		if peak > 0 {
			b.Pct = abs(p.Value) / peak * 100
		}
		cd.Bars = append(cd.Bars, b)
	}
	return cd, nil
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	sel, _ := s.store.Selected()
	writeJSON(w, http.StatusOK, "api files", output.Summarize(s.store.Files(), sel.ID))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.store.Lookup(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "api file", fmt.Errorf("%w: %s", history.ErrUnknownID, chi.URLParam(r, "id")))
		return
	}
	columns, rows, err := s.im.Rows(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "api file", err)
		return
	}
	rec.Columns, rec.Rows = columns, rows
	writeJSON(w, http.StatusOK, "api file", rec)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.store.Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "api remove", fmt.Errorf("%w: %s", history.ErrUnknownID, id))
		return
	}
	if err := s.store.RemoveFile(id); err != nil {
		writeError(w, http.StatusInternalServerError, "api remove", err)
		return
	}
	s.logger.Info("removed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.SelectByID(id); err != nil {
		writeError(w, statusFor(err), "api select", err)
		return
	}
	sel, _ := s.store.Selected()
	writeJSON(w, http.StatusOK, "api select", output.Summarize([]history.FileRecord{sel}, sel.ID)[0])
}

// handleUpload imports the multipart "file" field. Browsers posting the
// form with redirect=1 are sent back to the data page.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "api import", fmt.Errorf("could not read upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "api import", fmt.Errorf("missing \"file\" field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "api import", fmt.Errorf("could not read upload: %w", err))
		return
	}

	rec, err := s.im.FromBytes(header.Filename, data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "api import", err)
		return
	}
	if err := s.im.Add(s.store, rec); err != nil {
		writeError(w, statusFor(err), "api import", err)
		return
	}
	s.logger.Info("imported", "file", rec.Name, "id", rec.ID, "rows", len(rec.Rows))

	if r.FormValue("redirect") != "" {
		http.Redirect(w, r, "/data", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, "api import", output.Summarize([]history.FileRecord{rec}, rec.ID)[0])
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, history.ErrUnknownID):
		return http.StatusNotFound
	case errors.Is(err, history.ErrAmbiguousID):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, cmd string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	output.WriteJSON(w, cmd, data)
}

func writeError(w http.ResponseWriter, status int, cmd string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(output.JSONResult{
		OK:      false,
		Command: cmd,
		Version: version.Version,
		Error:   err.Error(),
		Code:    status,
	})
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
