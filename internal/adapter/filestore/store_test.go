package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var may2020 = domain.MonthKey{Year: 2020, Month: time.May}

func TestStore_Path(t *testing.T) {
	s := New("data")
	assert.Equal(t, filepath.Join("data", "erie", "2020-05.json"), s.Path("erie", may2020))
}

func TestStore_WriteCreatesPrettyJSON(t *testing.T) {
	s := New(t.TempDir())

	path, err := s.Write("erie", may2020, []domain.Sample{{Lat: 41.7, Lng: -83.3, Value: 2.5}})
	require.NoError(t, err)
	assert.Equal(t, s.Path("erie", may2020), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"lat\": 41.7,\n    \"lng\": -83.3,\n    \"value\": 2.5\n  }\n]", string(data))

	ok, err := s.Exists("erie", may2020)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_WriteNeverOverwrites(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Write("erie", may2020, []domain.Sample{{Lat: 1, Lng: 2, Value: 3}})
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path("erie", may2020))
	require.NoError(t, err)

	_, err = s.Write("erie", may2020, []domain.Sample{{Lat: 9, Lng: 9, Value: 9}})
	require.ErrorIs(t, err, ErrExists)

	after, err := os.ReadFile(s.Path("erie", may2020))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStore_WriteLeavesNoStagingFiles(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Write("huron", may2020, []domain.Sample{{Value: 1}})
	require.NoError(t, err)
	_, _ = s.Write("huron", may2020, []domain.Sample{{Value: 2}})

	entries, err := os.ReadDir(filepath.Join(s.Root(), "huron"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2020-05.json", entries[0].Name())
}

func TestStore_ExistsMissing(t *testing.T) {
	s := New(t.TempDir())
	ok, err := s.Exists("erie", may2020)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Read(t *testing.T) {
	s := New(t.TempDir())

	_, err := s.Read("erie", may2020)
	require.ErrorIs(t, err, ErrNotFound)

	want := []domain.Sample{{Lat: 41.7, Lng: -83.3, Value: 2.5}, {Lat: 41.8, Lng: -83.2, Value: 0}}
	_, err = s.Write("erie", may2020, want)
	require.NoError(t, err)

	got, err := s.Read("erie", may2020)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_ReadCorrupt(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(s.Root(), "erie"), 0o755))
	require.NoError(t, os.WriteFile(s.Path("erie", may2020), []byte("{not json"), 0o644))

	_, err := s.Read("erie", may2020)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestStore_Months(t *testing.T) {
	s := New(t.TempDir())

	months, err := s.Months("erie")
	require.NoError(t, err)
	assert.Empty(t, months)

	for _, m := range []string{"2021-02", "2019-12", "2020-05"} {
		mk, err := domain.ParseMonthKey(m)
		require.NoError(t, err)
		_, err = s.Write("erie", mk, []domain.Sample{{Value: 1}})
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "erie", "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "erie", "bogus.json"), []byte("[]"), 0o644))

	months, err = s.Months("erie")
	require.NoError(t, err)
	var names []string
	for _, m := range months {
		names = append(names, m.String())
	}
	assert.Equal(t, []string{"2019-12", "2020-05", "2021-02"}, names)
}

func TestStore_CheckReadiness(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, New(dir).CheckReadiness(context.Background()))
	assert.Error(t, New(filepath.Join(dir, "missing")).CheckReadiness(context.Background()))

	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, New(file).CheckReadiness(context.Background()))
}
