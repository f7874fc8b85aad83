package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/RoundTrip/internal/core"
	"github.com/JonMunkholm/RoundTrip/internal/export"
	"github.com/JonMunkholm/RoundTrip/internal/importer"
	"github.com/JonMunkholm/RoundTrip/internal/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// adapterInfo is the JSON shape returned by the adapter listing.
type adapterInfo struct {
	Name      string   `json:"name"`
	Entity    string   `json:"entity"`
	Worksheet string   `json:"worksheet"`
	Headers   []string `json:"headers"`
}

// handleListAdapters returns all registered table definitions.
func (s *Server) handleListAdapters(w http.ResponseWriter, r *http.Request) {
	defs := core.All()
	out := make([]adapterInfo, len(defs))
	for i, def := range defs {
		out[i] = adapterInfo{
			Name:      def.Name,
			Entity:    string(def.Entity),
			Worksheet: def.Worksheet,
			Headers:   def.AllDisplayHeaders(),
		}
	}
	writeJSON(w, out)
}

// handleExport streams the table's rows as a CSV or Excel download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	def, ok := s.adapterParam(w, r)
	if !ok {
		return
	}

	rows, ok := s.listRows(w, r, def)
	if !ok {
		return
	}

	exp := export.New(def)
	timestamp := time.Now().Format("20060102_150405")

	if r.URL.Query().Get("format") == "xlsx" {
		data, err := exp.WriteExcel(rows)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s_%s.xlsx"`, def.Name, timestamp))
		w.Write(data)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_%s.csv"`, def.Name, timestamp))
	if err := exp.WriteCSV(w, rows); err != nil {
		// Headers already sent; nothing to do but log.
		logging.FromContext(r.Context()).Error("export stream failed",
			"adapter", def.Name, "error", err)
	}
}

// handleTemplate returns an empty export (banner plus headers only) for
// the table, as a starting point for hand-built files.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	def, ok := s.adapterParam(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_template.csv"`, def.Name))
	if err := export.New(def).WriteCSV(w, nil); err != nil {
		logging.FromContext(r.Context()).Error("template stream failed",
			"adapter", def.Name, "error", err)
	}
}

// handleImport accepts an edited spreadsheet upload, stages and commits
// its changes, and reports the number of rows modified.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	def, ok := s.adapterParam(w, r)
	if !ok {
		return
	}

	maxSize := s.cfg.Bridge.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	importID := uuid.NewString()
	logger := logging.WithFields(r.Context(),
		"import_id", importID,
		"adapter", def.Name,
		"file", header.Filename,
	)
	logger.Info("import started")

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Bridge.ImportTimeout)
	defer cancel()

	im := importer.New(def, s.stores)

	var count int
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".xlsx", ".xlsm":
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "failed to read file")
			return
		}
		count, err = im.ImportExcel(ctx, data)
		if err != nil {
			logger.Error("import failed", "error", err)
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	default:
		count, err = im.ImportCSV(ctx, file)
		if err != nil {
			logger.Error("import failed", "error", err)
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	logger.Info("import committed", "rows_modified", count)
	writeJSON(w, map[string]any{
		"import_id":     importID,
		"rows_modified": count,
	})
}

// adapterParam resolves the {adapter} URL parameter to a registered
// table definition, writing the error response itself on failure.
func (s *Server) adapterParam(w http.ResponseWriter, r *http.Request) (core.TableDefinition, bool) {
	name := chi.URLParam(r, "adapter")
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "missing adapter name")
		return core.TableDefinition{}, false
	}

	def, ok := core.Get(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "adapter not found")
		return core.TableDefinition{}, false
	}
	return def, true
}

// listRows loads every row of the definition's store for export.
func (s *Server) listRows(w http.ResponseWriter, r *http.Request, def core.TableDefinition) ([]core.Row, bool) {
	st, ok := s.stores.StoreFor(def.Entity)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "no store bound for adapter")
		return nil, false
	}

	lister, ok := st.(core.Lister)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "store does not support export")
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Bridge.ExportTimeout)
	defer cancel()

	rows, err := lister.List(ctx)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return rows, true
}
