package orm

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saltyorg/litemapper/internal/database"
	"github.com/saltyorg/litemapper/internal/schema"
)

type reading struct {
	Identity
	Name  string
	Count int64
	Value float64
	note  string
}

func (r *reading) Values() Values {
	return Values{"name": r.Name, "count": r.Count, "value": r.Value, "_note": r.note}
}

var readings = Register(
	schema.New("Reading",
		schema.Field{Name: "name", Type: schema.Text},
		schema.Field{Name: "count", Type: schema.Integer},
		schema.Field{Name: "value", Type: schema.Real},
	),
	func(_ []schema.Field, v Values) (*reading, error) {
		r := &reading{note: "loaded"}
		r.Name, _ = v.Text("name")
		r.Count, _ = v.Integer("count")
		r.Value, _ = v.Real("value")
		return r, nil
	},
)

var counters = Register(schema.New("Counter", schema.Field{Name: "n", Type: schema.Integer}), BuildRecord)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db := database.New(filepath.Join(t.TempDir(), "orm.db"), nil)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSaveThenGetRoundTrips(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	orig := &reading{Name: "temp", Count: 3, Value: 21.5, note: "transient"}
	saved, err := m.Save(orig)
	require.NoError(t, err)
	require.Same(t, orig, saved)

	id, ok := orig.ID()
	require.True(t, ok)
	require.EqualValues(t, 1, id)

	got, err := m.Get(id)
	require.NoError(t, err)
	require.Equal(t, Public(orig), Public(got))
	require.Equal(t, Values{"id": int64(1), "name": "temp", "count": int64(3), "value": 21.5}, Public(got))
	require.Equal(t, "loaded", got.note, "rebuilt through the factory, not the constructor")
}

func TestNewMapperIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	first, err := NewMapper(db, readings, true)
	require.NoError(t, err)
	_, err = first.Save(&reading{Name: "a", Count: 1, Value: 1})
	require.NoError(t, err)

	second, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	n, err := second.Count()
	require.NoError(t, err)
	require.EqualValues(t, 1, n, "existing table must not be dropped or recreated")

	tables, err := db.Tables()
	require.NoError(t, err)
	require.Equal(t, []string{"Reading"}, tables)
}

func TestSaveRejectsDuplicateIdentity(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	r := &reading{Name: "a"}
	_, err = m.Save(r)
	require.NoError(t, err)

	_, err = m.Save(r)
	require.ErrorIs(t, err, ErrDuplicateIdentity)
	var dup *DuplicateIdentityError
	require.ErrorAs(t, err, &dup)
	require.EqualValues(t, 1, dup.ID)
	require.Equal(t, "Reading", dup.Model)

	fresh := &reading{Name: "b"}
	_, err = m.Save(fresh)
	require.NoError(t, err)
	id, _ := fresh.ID()
	require.EqualValues(t, 2, id)
}

func TestSaveWithUnknownIDInsertsFreshRow(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	r := &reading{Name: "a"}
	r.SetID(0)
	_, err = m.Save(r)
	require.NoError(t, err)

	id, ok := r.ID()
	require.True(t, ok)
	require.EqualValues(t, 1, id, "zero is an identity in its own right and is replaced by the engine id")
}

func TestTypeChecking(t *testing.T) {
	db := newTestDB(t)

	checked, err := NewMapper(db, counters, true)
	require.NoError(t, err)

	bad := NewRecord(Values{"n": "seven"})
	_, err = checked.Save(bad)
	require.ErrorIs(t, err, ErrTypeMismatch)

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "n", mismatch.Field)
	require.Equal(t, "integer", mismatch.Expected)
	require.Equal(t, "text", mismatch.Actual)

	_, ok := bad.ID()
	require.False(t, ok, "failed save must not assign an id")

	unchecked, err := NewMapper(db, counters, false)
	require.NoError(t, err)
	_, err = unchecked.Save(bad)
	require.NoError(t, err)
	_, ok = bad.ID()
	require.True(t, ok)
}

func TestTypeCheckingOnUpdate(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, counters, true)
	require.NoError(t, err)

	rec := NewRecord(Values{"n": int64(1)})
	_, err = m.Save(rec)
	require.NoError(t, err)

	rec.Set("n", 2.5)
	require.ErrorIs(t, m.Update(rec), ErrTypeMismatch)

	rec.Set("extra", "x")
	rec.Set("n", 3)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, m.Update(rec), &mismatch)
	require.Equal(t, "extra", mismatch.Field)
	require.Equal(t, "undeclared", mismatch.Expected)

	rec.Set("n", nil)
	require.ErrorAs(t, m.Update(rec), &mismatch)
	require.Equal(t, "null", mismatch.Actual)
}

func TestUndeclaredColumnWithoutTypeCheckFailsInEngine(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, counters, false)
	require.NoError(t, err)

	_, err = m.Save(NewRecord(Values{"n": 1, "ghost": "boo"}))
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrTypeMismatch))
}

func TestDeleteIsScoped(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	keep := &reading{Name: "keep"}
	drop := &reading{Name: "drop"}
	_, err = m.Save(keep)
	require.NoError(t, err)
	_, err = m.Save(drop)
	require.NoError(t, err)

	require.NoError(t, m.Delete(drop))
	require.Equal(t, "drop", drop.Name, "in-memory object untouched")

	dropID, _ := drop.ID()
	_, err = m.Get(dropID)
	require.ErrorIs(t, err, ErrMissingObject)
	var missing *MissingObjectError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, dropID, missing.ID)
	require.Equal(t, "Reading", missing.Model)

	keepID, _ := keep.ID()
	has, err := m.Has(keepID)
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, m.Delete(drop), "deleting twice is a no-op")
	require.NoError(t, m.Delete(&reading{}), "deleting an unsaved object is a no-op")
}

func TestUpdateMissingRowIsNoop(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	ghost := &reading{Name: "ghost"}
	ghost.SetID(42)
	require.NoError(t, m.Update(ghost))

	has, err := m.Has(42)
	require.NoError(t, err)
	require.False(t, has)
}

func TestAllIsLazyAndSingleUse(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)

	empty, err := m.List()
	require.NoError(t, err)
	require.Empty(t, empty)

	seq := m.All()
	for _, name := range []string{"a", "b", "c"} {
		_, err := m.Save(&reading{Name: name})
		require.NoError(t, err)
	}

	var names []string
	for r, err := range seq {
		require.NoError(t, err)
		names = append(names, r.Name)
	}
	require.Equal(t, []string{"a", "b", "c"}, names, "scan runs when iteration starts")

	for range seq {
		t.Fatal("sequence must not restart")
	}

	var first string
	for r, err := range m.All() {
		require.NoError(t, err)
		first = r.Name
		break
	}
	require.Equal(t, "a", first)
}

func TestCreateBypassesConstructor(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, counters, true)
	require.NoError(t, err)

	rec, err := m.Create(Values{"id": int64(9), "n": int64(4)})
	require.NoError(t, err)
	id, ok := rec.ID()
	require.True(t, ok)
	require.EqualValues(t, 9, id)
	n, _ := rec.Get("n")
	require.Equal(t, int64(4), n)
	_, hasID := rec.Values()["id"]
	require.False(t, hasID)
}

func TestMissingTypeMappingFailsConstruction(t *testing.T) {
	db := newTestDB(t)
	broken := Register(schema.New("Broken", schema.Field{Name: "b", Type: schema.Type(99)}), BuildRecord)

	_, err := NewMapper(db, broken, true)
	require.ErrorIs(t, err, schema.ErrMissingTypeMapping)
}

func TestValuesString(t *testing.T) {
	rec := NewRecord(Values{"title": "Hello", "text": "World", "_draft": true})
	rec.SetID(2)
	require.Equal(t, `{id: 2, text: "World", title: "Hello"}`, rec.String())
	require.Equal(t, `{n: null, x: 1.5}`, Values{"n": nil, "x": 1.5}.String())
}

func TestIntegerValuesShareTypeCheckRules(t *testing.T) {
	rec := NewRecord(nil)
	rec.Set("id", uint(5))
	id, ok := rec.ID()
	require.True(t, ok)
	require.EqualValues(t, 5, id)

	db := newTestDB(t)
	m, err := NewMapper(db, counters, true)
	require.NoError(t, err)

	_, err = m.Save(NewRecord(Values{"n": uint32(8)}))
	require.NoError(t, err)

	var mismatch *TypeMismatchError
	_, err = m.Save(NewRecord(Values{"n": uint64(math.MaxUint64)}))
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "integer", mismatch.Expected)
	require.Equal(t, "uint64", mismatch.Actual)
}

func TestAllFinishesAcrossCommits(t *testing.T) {
	db := newTestDB(t)
	m, err := NewMapper(db, readings, true)
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		_, err := m.Save(&reading{Name: name})
		require.NoError(t, err)
	}

	audit := Register(schema.New("Audit", schema.Field{Name: "name", Type: schema.Text}), BuildRecord).With(db)

	var names []string
	for r, err := range m.All() {
		require.NoError(t, err)
		names = append(names, r.Name)
		// the first save creates the Audit table, which commits
		_, err = audit.Save(NewRecord(Values{"name": r.Name}))
		require.NoError(t, err)
		require.NoError(t, db.Commit())
	}
	require.Equal(t, []string{"a", "b", "c"}, names)
}
