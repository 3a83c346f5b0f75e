package metadata_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/JoinPilot/internal/errs"
	"github.com/koustreak/JoinPilot/internal/metadata"
	"github.com/koustreak/JoinPilot/internal/metadata/metadatatest"
)

func TestParseIdent(t *testing.T) {
	tests := []struct {
		name    string
		ident   string
		alias   string
		want    metadata.TableRef
		wantErr bool
	}{
		{
			name:  "bare table",
			ident: "orders",
			alias: "o",
			want:  metadata.TableRef{Table: "orders", Alias: "o"},
		},
		{
			name:  "schema qualified",
			ident: "audit.orders",
			alias: "o",
			want:  metadata.TableRef{Schema: "audit", Table: "orders", Alias: "o"},
		},
		{
			name:  "alias defaults to table name",
			ident: "orders",
			want:  metadata.TableRef{Table: "orders", Alias: "orders"},
		},
		{
			name:  "split on first separator only",
			ident: "a.b.c",
			alias: "x",
			want:  metadata.TableRef{Schema: "a", Table: "b.c", Alias: "x"},
		},
		{
			name:  "surrounding whitespace trimmed",
			ident: "  orders ",
			alias: "o",
			want:  metadata.TableRef{Table: "orders", Alias: "o"},
		},
		{name: "empty identifier", ident: "", wantErr: true},
		{name: "blank identifier", ident: "   ", wantErr: true},
		{name: "missing schema part", ident: ".orders", wantErr: true},
		{name: "missing table part", ident: "audit.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := metadata.ParseIdent(tt.ident, tt.alias)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
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

	t.Run("existing table", func(t *testing.T) {
		snap, found, err := metadata.Resolve(context.Background(), p, metadata.TableRef{Table: "users", Alias: "u"})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "public", snap.Schema)
		assert.Equal(t, "users", snap.Table)
		assert.Len(t, snap.Columns, 2)
		assert.Equal(t, []string{"id"}, snap.PrimaryKey)
		assert.Empty(t, snap.Outgoing)
		require.Len(t, snap.Incoming, 1)
		assert.Equal(t, "orders_user_id_fkey", snap.Incoming[0].Constraint)
	})

	t.Run("schema defaults to the provider's", func(t *testing.T) {
		snap, found, err := metadata.Resolve(context.Background(), p, metadata.TableRef{Table: "orders", Alias: "o"})
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "public", snap.Schema)
		require.Len(t, snap.Outgoing, 1)
	})

	t.Run("missing table is found=false, not an error", func(t *testing.T) {
		snap, found, err := metadata.Resolve(context.Background(), p, metadata.TableRef{Table: "ghost", Alias: "g"})
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, snap)
	})

	t.Run("wrong schema misses", func(t *testing.T) {
		_, found, err := metadata.Resolve(context.Background(), p, metadata.TableRef{Schema: "audit", Table: "users", Alias: "u"})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("provider failure aborts with no snapshot", func(t *testing.T) {
		failing := metadatatest.New("public")
		failing.Add("users", metadatatest.Table{})
		failing.Err = errs.New(errs.ErrKindConnectionFailed, "catalog unavailable")

		snap, found, err := metadata.Resolve(context.Background(), failing, metadata.TableRef{Table: "users", Alias: "u"})
		require.Error(t, err)
		assert.True(t, errs.IsConnectionFailed(err))
		assert.False(t, found)
		assert.Nil(t, snap)
	})
}

func TestTableRefQualified(t *testing.T) {
	assert.Equal(t, "public.users", metadata.TableRef{Schema: "public", Table: "users"}.Qualified())
	assert.Equal(t, "users", metadata.TableRef{Table: "users"}.Qualified())
}
