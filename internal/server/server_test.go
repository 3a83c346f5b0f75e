package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/fetch"
	"github.com/koustreak/JoinPilot/internal/join"
	"github.com/koustreak/JoinPilot/internal/metadata"
	"github.com/koustreak/JoinPilot/internal/metadata/metadatatest"
)

// stubDB satisfies database.DB for handlers that only need Ping and a
// canned result set.
type stubDB struct {
	pingErr error
	cols    []string
	rows    [][]any
}

func (s *stubDB) Ping(ctx context.Context) error { return s.pingErr }
func (s *stubDB) Close()                         {}

func (s *stubDB) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	return &stubRows{cols: s.cols, rows: s.rows, idx: -1}, nil
}

func (s *stubDB) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	return nil, errs.New(errs.ErrKindQueryFailed, "not implemented")
}

type stubRows struct {
	cols []string
	rows [][]any
	idx  int
}

func (r *stubRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *stubRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.rows[r.idx][i]
	}
	return nil
}

func (r *stubRows) Columns() ([]string, error) { return r.cols, nil }
func (r *stubRows) Close()                     {}
func (r *stubRows) Err() error                 { return nil }

func newTestServer(t *testing.T, db *stubDB, p *metadatatest.Provider) http.Handler {
	t.Helper()
	engine := join.New(p, nil, nil)
	sampler := fetch.NewSampler(db, p, database.DialectPostgres, fetch.Options{})
	return New(db, p, engine, sampler, nil, Options{}).Routes()
}

func shopProvider() *metadatatest.Provider {
	p := metadatatest.New("public")
	p.Add("users", metadatatest.Table{
		Columns: []metadata.Column{
			{Name: "id", DataType: "integer"},
			{Name: "email", DataType: "text", Class: metadata.ClassTextual},
		},
		PrimaryKey: []string{"id"},
	})
	p.Add("orders", metadatatest.Table{
		Columns: []metadata.Column{
			{Name: "id", DataType: "integer"},
			{Name: "user_id", DataType: "integer"},
		},
		PrimaryKey: []string{"id"},
		Outgoing: []metadata.ForeignKeyEdge{
			metadatatest.Edge("orders_user_id_fkey", "public", "orders", "user_id", "public", "users", "id"),
		},
	})
	p.Add("settings", metadatatest.Table{
		Columns:    []metadata.Column{{Name: "key", DataType: "text", Class: metadata.ClassTextual}},
		PrimaryKey: []string{"key"},
	})
	return p
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		h := newTestServer(t, &stubDB{}, shopProvider())
		rec := doJSON(t, h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("database unreachable", func(t *testing.T) {
		db := &stubDB{pingErr: errs.New(errs.ErrKindConnectionFailed, "connection refused")}
		h := newTestServer(t, db, shopProvider())
		rec := doJSON(t, h, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})
}

func TestListTables(t *testing.T) {
	h := newTestServer(t, &stubDB{}, shopProvider())
	rec := doJSON(t, h, http.MethodGet, "/v1/tables", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tables []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"users", "orders", "settings"}, resp.Tables)
}

func TestDescribeTable(t *testing.T) {
	h := newTestServer(t, &stubDB{}, shopProvider())

	t.Run("existing", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/v1/tables/orders", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "public", resp["schema"])
		assert.Equal(t, "orders", resp["table"])
		assert.Equal(t, []any{"id"}, resp["primary_key"])

		fks, ok := resp["foreign_keys"].([]any)
		require.True(t, ok)
		require.Len(t, fks, 1)
		fk := fks[0].(map[string]any)
		assert.Equal(t, "orders_user_id_fkey", fk["constraint"])
		assert.Equal(t, "public.users", fk["target_table"])
	})

	t.Run("incoming edges listed", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/v1/tables/users", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		refs, ok := resp["referenced_by"].([]any)
		require.True(t, ok)
		require.Len(t, refs, 1)
	})

	t.Run("missing table is 404 with error payload", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/v1/tables/ghost", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp struct {
			Error struct {
				Kind    string `json:"kind"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "not_found", resp.Error.Kind)
		assert.Contains(t, resp.Error.Message, "ghost")
	})
}

func TestSampleRowsEndpoint(t *testing.T) {
	db := &stubDB{
		cols: []string{"id", "email"},
		rows: [][]any{{int64(1), "a@example.com"}},
	}
	h := newTestServer(t, db, shopProvider())

	rec := doJSON(t, h, http.MethodGet, "/v1/tables/users/rows?limit=10&offset=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows   []map[string]any `json:"rows"`
		Count  int              `json:"count"`
		Offset int              `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "a@example.com", resp.Rows[0]["email"])
}

func TestSuggestJoinsEndpoint(t *testing.T) {
	h := newTestServer(t, &stubDB{}, shopProvider())

	t.Run("suggestions returned ranked", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/joins/suggest", map[string]any{
			"tables":    []map[string]string{{"table": "users", "alias": "u"}},
			"new_table": map[string]string{"table": "orders", "alias": "o"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Suggestions []join.Suggestion `json:"suggestions"`
			Message     string            `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Suggestions, 2)
		assert.Empty(t, resp.Message)
		assert.Equal(t, "INNER JOIN orders o ON o.user_id = u.id", resp.Suggestions[0].Expression)
		assert.Equal(t, 105, resp.Suggestions[0].Score)
		assert.Greater(t, resp.Suggestions[0].Score, resp.Suggestions[1].Score)
	})

	t.Run("no relationship yields message, not error", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/joins/suggest", map[string]any{
			"tables":    []map[string]string{{"table": "users", "alias": "u"}},
			"new_table": map[string]string{"table": "settings", "alias": "s"},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"suggestions":[],"message":"no join suggestions found"}`, rec.Body.String())
	})

	t.Run("unknown new table is 404", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/joins/suggest", map[string]any{
			"tables":    []map[string]string{{"table": "users", "alias": "u"}},
			"new_table": map[string]string{"table": "ghost", "alias": "g"},
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty existing tables is 400", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/v1/joins/suggest", map[string]any{
			"tables":    []map[string]string{},
			"new_table": map[string]string{"table": "orders", "alias": "o"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/joins/suggest", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
