package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"sort"

	"github.com/luisdotcom/db-hub/internal/mutation"
)

// identityJSON accepts a primary-key identity as either
// [{"column":"id","value":7}] or {"id":7}.
type identityJSON mutation.Identity

func (id *identityJSON) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var kvs []mutation.KeyValue
		if err := unmarshalNumbers(b, &kvs); err != nil {
			return err
		}
		for i := range kvs {
			kvs[i].Value = normalizeNumber(kvs[i].Value)
		}
		*id = kvs
		return nil
	}
	var m map[string]any
	if err := unmarshalNumbers(b, &m); err != nil {
		return err
	}
	cols := make([]string, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	out := make(identityJSON, 0, len(cols))
	for _, c := range cols {
		out = append(out, mutation.KeyValue{Column: c, Value: normalizeNumber(m[c])})
	}
	*id = out
	return nil
}

func unmarshalNumbers(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// normalizeNumber turns json.Number into int64 when integral, float64
// otherwise, so drivers bind native numeric types.
func normalizeNumber(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

type rowRequest struct {
	targetBody
	Table    string         `json:"table_name"`
	Identity identityJSON   `json:"pk_data"`
	Values   map[string]any `json:"new_data"`
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	values := make(map[string]any, len(req.Values))
	for k, v := range req.Values {
		values[k] = normalizeNumber(v)
	}
	out, err := s.app.Mutation.Update(r.Context(), req.target(), req.Database, req.Table, mutation.Identity(req.Identity), values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	var req rowRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.app.Mutation.Delete(r.Context(), req.target(), req.Database, req.Table, mutation.Identity(req.Identity))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
