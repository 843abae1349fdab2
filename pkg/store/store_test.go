package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pf "github.com/pthm/planfilter"
	"github.com/pthm/planfilter/internal/sqlgen"
	"github.com/pthm/planfilter/pkg/store"
)

// recordingQuerier fails every query and remembers what it was asked.
type recordingQuerier struct {
	calls int
	query string
	args  []any
}

var errNoDatabase = errors.New("no database")

func (r *recordingQuerier) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	r.calls++
	r.query = query
	r.args = args
	return nil, errNoDatabase
}

var schema = sqlgen.Schema{Table: "resources"}

func TestStore_DeniedNeverQueries(t *testing.T) {
	q := &recordingQuerier{}
	s := store.New(q, schema)

	ids, err := s.IDs(context.Background(), pf.Result{Kind: pf.KindAlwaysDenied})
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = s.Select(context.Background(), pf.Result{Kind: pf.KindAlwaysDenied}, nil, func(*sql.Rows) error {
		t.Fatal("scan called for denied plan")
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, q.calls)
}

func TestStore_IssuesCompiledQuery(t *testing.T) {
	q := &recordingQuerier{}
	s := store.New(q, schema, store.WithLimit(5))

	res := pf.Result{Kind: pf.KindConditional, Filter: pf.Field("aBool", pf.PredEquals, true)}
	_, err := s.IDs(context.Background(), res)
	require.ErrorIs(t, err, errNoDatabase)

	assert.Equal(t, 1, q.calls)
	assert.Equal(t, `SELECT "t"."id" FROM "resources" AS "t" WHERE "t"."aBool" = $1 ORDER BY "t"."id" LIMIT 5`, q.query)
	assert.Equal(t, []any{true}, q.args)
}

func TestStore_CompileErrorSkipsQuery(t *testing.T) {
	q := &recordingQuerier{}
	s := store.New(q, schema)

	res := pf.Result{Kind: pf.KindConditional, Filter: pf.Some("owners", pf.Field("id", pf.PredEquals, "u1"))}
	_, err := s.IDs(context.Background(), res)
	require.ErrorIs(t, err, sqlgen.ErrUnknownRelation)
	assert.Zero(t, q.calls)
}
