package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/join"
	"github.com/koustreak/JoinPilot/internal/metadata"
)

// tableRefPayload is the wire shape of a table reference.
type tableRefPayload struct {
	Table string `json:"table"`
	Alias string `json:"alias"`
}

// suggestRequest is the body of POST /v1/joins/suggest.
type suggestRequest struct {
	Tables   []tableRefPayload `json:"tables"`
	NewTable tableRefPayload   `json:"new_table"`
}

// suggestResponse is its reply. Message is set only when the suggestion
// list is empty, keeping "no suggestions" visibly distinct from an error.
type suggestResponse struct {
	Suggestions []join.Suggestion `json:"suggestions"`
	Message     string            `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := s.provider.ListTables(r.Context(), s.provider.DefaultSchema())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"tables": tables})
}

func (s *Server) handleDescribeTable(w http.ResponseWriter, r *http.Request) {
	ref, err := metadata.ParseIdent(chi.URLParam(r, "table"), "")
	if err != nil {
		s.writeError(w, err)
		return
	}

	snap, found, err := metadata.Resolve(r.Context(), s.provider, ref)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeError(w, errs.Newf(errs.ErrKindNotFound, "table %q not found", ref.Qualified()))
		return
	}
	s.writeJSON(w, http.StatusOK, snapshotPayload(snap))
}

func (s *Server) handleSampleRows(w http.ResponseWriter, r *http.Request) {
	ref, err := metadata.ParseIdent(chi.URLParam(r, "table"), "")
	if err != nil {
		s.writeError(w, err)
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	rows, err := s.sampler.SampleRows(r.Context(), ref, limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"rows":   rows,
		"count":  len(rows),
		"offset": offset,
	})
}

func (s *Server) handleSuggestJoins(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errs.Wrap(errs.ErrKindInvalidInput, "malformed request body", err))
		return
	}
	if len(req.Tables) == 0 {
		s.writeError(w, errs.New(errs.ErrKindInvalidInput, "at least one existing table is required"))
		return
	}

	existing := make([]metadata.TableRef, 0, len(req.Tables))
	for _, t := range req.Tables {
		ref, err := metadata.ParseIdent(t.Table, t.Alias)
		if err != nil {
			s.writeError(w, err)
			return
		}
		existing = append(existing, ref)
	}
	newRef, err := metadata.ParseIdent(req.NewTable.Table, req.NewTable.Alias)
	if err != nil {
		s.writeError(w, err)
		return
	}

	suggestions, err := s.engine.SuggestJoins(r.Context(), existing, newRef)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := suggestResponse{Suggestions: suggestions}
	if resp.Suggestions == nil {
		resp.Suggestions = []join.Suggestion{}
	}
	if len(resp.Suggestions) == 0 {
		resp.Message = "no join suggestions found"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// snapshotPayload shapes a TableSnapshot for the wire.
func snapshotPayload(snap *metadata.TableSnapshot) map[string]any {
	cols := make([]map[string]any, len(snap.Columns))
	for i, c := range snap.Columns {
		cols[i] = map[string]any{
			"name":     c.Name,
			"type":     c.DataType,
			"class":    c.Class.String(),
			"nullable": c.Nullable,
		}
		if c.Default != nil {
			cols[i]["default"] = *c.Default
		}
		if c.MaxLen != nil {
			cols[i]["max_length"] = *c.MaxLen
		}
		if c.Comment != "" {
			cols[i]["comment"] = c.Comment
		}
	}

	fks := make([]map[string]any, len(snap.Outgoing))
	for i, e := range snap.Outgoing {
		fks[i] = edgePayload(e)
	}
	refs := make([]map[string]any, len(snap.Incoming))
	for i, e := range snap.Incoming {
		refs[i] = edgePayload(e)
	}

	idxs := make([]map[string]any, len(snap.Indexes))
	for i, ix := range snap.Indexes {
		idxs[i] = map[string]any{
			"name":    ix.Name,
			"columns": ix.Columns,
			"unique":  ix.Unique,
			"method":  ix.Method,
		}
	}

	pk := snap.PrimaryKey
	if pk == nil {
		pk = []string{}
	}

	return map[string]any{
		"schema":        snap.Schema,
		"table":         snap.Table,
		"columns":       cols,
		"primary_key":   pk,
		"foreign_keys":  fks,
		"referenced_by": refs,
		"indexes":       idxs,
	}
}

func edgePayload(e metadata.ForeignKeyEdge) map[string]any {
	return map[string]any{
		"constraint":    e.Constraint,
		"source_table":  e.SourceSchema + "." + e.SourceTable,
		"source_column": e.SourceColumn,
		"target_table":  e.TargetSchema + "." + e.TargetTable,
		"target_column": e.TargetColumn,
	}
}
