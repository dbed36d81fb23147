package history

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klytics/sheetkit/internal/record"
)

// fakeBacking counts writes so tests can tell when the store persisted.
type fakeBacking struct {
	items    map[string]string
	sets     int
	setErr   error
	getErr   error
	removals int
}

func newFakeBacking() *fakeBacking {
	return &fakeBacking{items: make(map[string]string)}
}

func (b *fakeBacking) GetItem(key string) (string, bool, error) {
	if b.getErr != nil {
		return "", false, b.getErr
	}
	v, ok := b.items[key]
	return v, ok, nil
}

func (b *fakeBacking) SetItem(key, value string) error {
	b.sets++
	if b.setErr != nil {
		return b.setErr
	}
	b.items[key] = value
	return nil
}

func (b *fakeBacking) RemoveItem(key string) error {
	b.removals++
	delete(b.items, key)
	return nil
}

func file(id, name string) FileRecord {
	return FileRecord{
		ID:   id,
		Name: name,
		Rows: []record.Row{{"Name": record.String(name)}},
	}
}

func ids(files []FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}

func selectedID(t *testing.T, s *Store) string {
	t.Helper()
	f, ok := s.Selected()
	if !ok {
		return ""
	}
	return f.ID
}

func TestNewStoreIsEmpty(t *testing.T) {
	s := New(newFakeBacking())
	assert.Empty(t, s.Files())
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, DefaultKey, s.Key())
}

func TestAddFileOrdersMostRecentFirst(t *testing.T) {
	b := newFakeBacking()
	s := New(b)

	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, s.AddFile(file(id, "f"+id)))
	}

	assert.Equal(t, []string{"4", "3", "2", "1"}, ids(s.Files()))
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, "4", selectedID(t, s))
	assert.Equal(t, 4, b.sets)
}

func TestAddFileDoesNotDeduplicate(t *testing.T) {
	s := New(newFakeBacking())
	require.NoError(t, s.AddFile(file("1", "a")))
	require.NoError(t, s.AddFile(file("1", "a again")))

	files := s.Files()
	require.Len(t, files, 2)
	assert.Equal(t, "a again", files[0].Name)
}

func TestScenarioAddAndRemove(t *testing.T) {
	s := New(newFakeBacking())

	require.NoError(t, s.AddFile(file("1", "a")))
	require.NoError(t, s.AddFile(file("2", "b")))
	assert.Equal(t, []string{"2", "1"}, ids(s.Files()))
	assert.Equal(t, "2", selectedID(t, s))

	require.NoError(t, s.RemoveFile("2"))
	assert.Equal(t, []string{"1"}, ids(s.Files()))
	assert.Equal(t, "1", selectedID(t, s))

	require.NoError(t, s.RemoveFile("1"))
	assert.Empty(t, s.Files())
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestRemoveSelectedReselectsFirst(t *testing.T) {
	s := New(newFakeBacking())
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.AddFile(file(id, id)))
	}
	require.NoError(t, s.SelectByID("2"))

	require.NoError(t, s.RemoveFile("2"))
	assert.Equal(t, []string{"3", "1"}, ids(s.Files()))
	assert.Equal(t, "3", selectedID(t, s))
}

func TestRemoveUnselectedKeepsSelection(t *testing.T) {
	s := New(newFakeBacking())
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.AddFile(file(id, id)))
	}

	require.NoError(t, s.RemoveFile("1"))
	assert.Equal(t, []string{"3", "2"}, ids(s.Files()))
	assert.Equal(t, "3", selectedID(t, s))
}

func TestRemoveAbsentIDStillPersists(t *testing.T) {
	b := newFakeBacking()
	s := New(b)
	require.NoError(t, s.AddFile(file("1", "a")))
	before := b.sets

	require.NoError(t, s.RemoveFile("missing"))
	assert.Equal(t, []string{"1"}, ids(s.Files()))
	assert.Equal(t, "1", selectedID(t, s))
	assert.Equal(t, before+1, b.sets)
}

func TestRemoveOnlyFirstMatch(t *testing.T) {
	s := New(newFakeBacking())
	require.NoError(t, s.AddFile(file("1", "old")))
	require.NoError(t, s.AddFile(file("1", "new")))

	require.NoError(t, s.RemoveFile("1"))
	files := s.Files()
	require.Len(t, files, 1)
	assert.Equal(t, "old", files[0].Name)
}

func TestSelectFileIsLooseAndDoesNotPersist(t *testing.T) {
	b := newFakeBacking()
	s := New(b)
	require.NoError(t, s.AddFile(file("1", "a")))
	before := b.sets

	s.SelectFile(file("stranger", "x"))
	assert.Equal(t, "stranger", selectedID(t, s))
	assert.Equal(t, []string{"1"}, ids(s.Files()))
	assert.Equal(t, before, b.sets)
}

func TestSelectByIDUnknown(t *testing.T) {
	s := New(newFakeBacking())
	require.NoError(t, s.AddFile(file("1", "a")))

	err := s.SelectByID("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownID))
	assert.Equal(t, "1", selectedID(t, s))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	b := newFakeBacking()
	s := New(b)
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, s.AddFile(file(id, "f"+id)))
	}
	require.NoError(t, s.SelectByID("1"))
	require.NoError(t, s.SaveHistory())

	fresh := New(b)
	fresh.LoadHistory()

	assert.Equal(t, []string{"3", "2", "1"}, ids(fresh.Files()))
	assert.Equal(t, "3", selectedID(t, fresh))

	rows := fresh.Files()[0].Rows
	require.Len(t, rows, 1)
	name, ok := rows[0]["Name"].AsString()
	assert.True(t, ok)
	assert.Equal(t, "f3", name)
}

func TestLoadDoesNotWrite(t *testing.T) {
	b := newFakeBacking()
	b.items[DefaultKey] = `[{"id":"1","name":"a","rows":[]}]`

	s := New(b)
	s.LoadHistory()
	assert.Equal(t, 0, b.sets)
	assert.Equal(t, "1", selectedID(t, s))
}

func TestLoadEmptyArrayClearsSelection(t *testing.T) {
	b := newFakeBacking()
	b.items[DefaultKey] = `[]`

	s := New(b)
	s.LoadHistory()
	assert.Empty(t, s.Files())
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestLoadCorruptValueKeepsEmptyState(t *testing.T) {
	for _, raw := range []string{"not json", `{"id":"1"}`, `[{"id":"1","rows":[{"a":{"b":1}}]}]`} {
		b := newFakeBacking()
		b.items[DefaultKey] = raw

		s := New(b)
		assert.NotPanics(t, s.LoadHistory)
		assert.Empty(t, s.Files(), "raw=%q", raw)
		_, ok := s.Selected()
		assert.False(t, ok)
	}
}

func TestLoadReadErrorKeepsEmptyState(t *testing.T) {
	b := newFakeBacking()
	b.getErr = errors.New("disk gone")

	s := New(b)
	s.LoadHistory()
	assert.Empty(t, s.Files())
}

func TestWriteFailurePropagates(t *testing.T) {
	b := newFakeBacking()
	b.setErr = errors.New("quota exceeded")
	s := New(b)

	err := s.AddFile(file("1", "a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, b.setErr)

	assert.ErrorIs(t, s.RemoveFile("1"), b.setErr)
}

func TestCustomKey(t *testing.T) {
	b := newFakeBacking()
	s := New(b, WithKey("custom"))
	require.NoError(t, s.AddFile(file("1", "a")))

	_, ok := b.items["custom"]
	assert.True(t, ok)
	_, ok = b.items[DefaultKey]
	assert.False(t, ok)
}

func TestSelectionNotPersisted(t *testing.T) {
	b := newFakeBacking()
	s := New(b)
	require.NoError(t, s.AddFile(file("1", "a")))
	assert.NotContains(t, b.items[DefaultKey], "selected")
}

func TestClear(t *testing.T) {
	b := newFakeBacking()
	s := New(b)
	require.NoError(t, s.AddFile(file("1", "a")))

	require.NoError(t, s.Clear())
	assert.Empty(t, s.Files())
	_, ok := b.items[DefaultKey]
	assert.False(t, ok)
	assert.Equal(t, 1, b.removals)
}

func TestFilesReturnsCopy(t *testing.T) {
	s := New(newFakeBacking())
	require.NoError(t, s.AddFile(file("1", "a")))

	files := s.Files()
	files[0].Name = "mutated"

	got, ok := s.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)
}

func TestByReference(t *testing.T) {
	assert.True(t, FileRecord{Source: "/tmp/a.xlsx"}.ByReference())
	assert.False(t, file("1", "a").ByReference())
}

func TestResolve(t *testing.T) {
	s := New(newFakeBacking())
	require.NoError(t, s.AddFile(file("abc-111", "sales.xlsx")))
	require.NoError(t, s.AddFile(file("abd-222", "users.xlsx")))
	require.NoError(t, s.AddFile(file("xyz-333", "sales.xlsx")))

	got, err := s.Resolve("abd-222")
	require.NoError(t, err)
	assert.Equal(t, "users.xlsx", got.Name)

	got, err = s.Resolve("xy")
	require.NoError(t, err)
	assert.Equal(t, "xyz-333", got.ID)

	_, err = s.Resolve("ab")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	// Most recent file with the name wins.
	got, err = s.Resolve("sales.xlsx")
	require.NoError(t, err)
	assert.Equal(t, "xyz-333", got.ID)

	_, err = s.Resolve("nope")
	assert.ErrorIs(t, err, ErrUnknownID)
	_, err = s.Resolve("")
	assert.ErrorIs(t, err, ErrUnknownID)
}
