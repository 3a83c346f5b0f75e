package fetch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/JoinPilot/internal/database"
	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/metadata"
	"github.com/koustreak/JoinPilot/internal/metadata/metadatatest"
)

// fakeDB replays a canned result set and records the query it was asked to
// run. Good enough for exercising the sampling pipeline without a server.
type fakeDB struct {
	cols []string
	rows [][]any
	err  error

	gotSQL  string
	gotArgs []any
}

func (f *fakeDB) Ping(ctx context.Context) error { return f.err }
func (f *fakeDB) Close()                         {}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	f.gotSQL = sql
	f.gotArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{cols: f.cols, rows: f.rows, idx: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) (database.Row, error) {
	return nil, errs.New(errs.ErrKindQueryFailed, "not implemented")
}

type fakeRows struct {
	cols []string
	rows [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	for i, d := range dest {
		*(d.(*any)) = r.rows[r.idx][i]
	}
	return nil
}

func (r *fakeRows) Columns() ([]string, error) { return r.cols, nil }
func (r *fakeRows) Close()                     {}
func (r *fakeRows) Err() error                 { return nil }

func sampleProvider() *metadatatest.Provider {
	p := metadatatest.New("public")
	p.Add("documents", metadatatest.Table{
		Columns: []metadata.Column{
			{Name: "id", DataType: "integer", Class: metadata.ClassOther},
			{Name: "body", DataType: "text", Class: metadata.ClassTextual},
			{Name: "payload", DataType: "bytea", Class: metadata.ClassBinary},
		},
		PrimaryKey: []string{"id"},
	})
	return p
}

func TestSampleRows(t *testing.T) {
	db := &fakeDB{
		cols: []string{"id", "body", "payload"},
		rows: [][]any{
			{int64(1), "short", []byte{0x01, 0x02, 0x03}},
			{int64(2), strings.Repeat("x", 40), nil},
		},
	}
	s := NewSampler(db, sampleProvider(), database.DialectPostgres, Options{MaxRows: 50, MaxFieldBytes: 10})

	rows, err := s.SampleRows(context.Background(), metadata.TableRef{Table: "documents", Alias: "d"}, 20, 5)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, `SELECT * FROM "public"."documents" LIMIT $1 OFFSET $2`, db.gotSQL)
	assert.Equal(t, []any{20, 5}, db.gotArgs)

	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "short", rows[0]["body"])
	assert.Equal(t, "<3 bytes>", rows[0]["payload"])

	assert.Equal(t, strings.Repeat("x", 10)+"… [truncated]", rows[1]["body"])
	assert.Nil(t, rows[1]["payload"])
}

func TestSampleRows_LimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero means maximum", 0, 50},
		{"above cap is clamped", 500, 50},
		{"within cap passes through", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeDB{cols: []string{"id"}}
			s := NewSampler(db, sampleProvider(), database.DialectPostgres, Options{MaxRows: 50})

			_, err := s.SampleRows(context.Background(), metadata.TableRef{Table: "documents", Alias: "d"}, tt.limit, 0)
			require.NoError(t, err)
			require.Len(t, db.gotArgs, 2)
			assert.Equal(t, tt.want, db.gotArgs[0])
		})
	}
}

func TestSampleRows_MySQLByteSlices(t *testing.T) {
	// database/sql hands text columns back as []byte; they must come out as
	// strings, truncated by byte length like any other textual value.
	db := &fakeDB{
		cols: []string{"id", "body", "payload"},
		rows: [][]any{{int64(1), []byte("hello world"), []byte("abc")}},
	}
	s := NewSampler(db, sampleProvider(), database.DialectMySQL, Options{MaxRows: 50, MaxFieldBytes: 5})

	rows, err := s.SampleRows(context.Background(), metadata.TableRef{Table: "documents", Alias: "d"}, 1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "SELECT * FROM \"public\".\"documents\" LIMIT ? OFFSET ?", db.gotSQL)
	assert.Equal(t, "hello… [truncated]", rows[0]["body"])
	assert.Equal(t, "<3 bytes>", rows[0]["payload"])
}

func TestSampleRows_Errors(t *testing.T) {
	t.Run("unknown table", func(t *testing.T) {
		s := NewSampler(&fakeDB{}, sampleProvider(), database.DialectPostgres, Options{})
		_, err := s.SampleRows(context.Background(), metadata.TableRef{Table: "ghost", Alias: "g"}, 10, 0)
		require.Error(t, err)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("negative offset", func(t *testing.T) {
		s := NewSampler(&fakeDB{}, sampleProvider(), database.DialectPostgres, Options{})
		_, err := s.SampleRows(context.Background(), metadata.TableRef{Table: "documents", Alias: "d"}, 10, -1)
		require.Error(t, err)
		assert.True(t, errs.IsInvalidInput(err))
	})

	t.Run("query failure propagates", func(t *testing.T) {
		db := &fakeDB{err: errs.New(errs.ErrKindConnectionFailed, "pool exhausted")}
		s := NewSampler(db, sampleProvider(), database.DialectPostgres, Options{})
		_, err := s.SampleRows(context.Background(), metadata.TableRef{Table: "documents", Alias: "d"}, 10, 0)
		require.Error(t, err)
		assert.True(t, errs.IsConnectionFailed(err))
	})
}
