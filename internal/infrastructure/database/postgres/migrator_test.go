package postgres

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ESG-Materiality/internal/infrastructure/monitoring/logging"
)

type fakeRunner struct {
	upErr      error
	stepsErr   error
	steps      []int
	version    uint
	dirty      bool
	versionErr error
	forced     []int
	closed     bool
}

func (f *fakeRunner) Up() error { return f.upErr }

func (f *fakeRunner) Steps(n int) error {
	f.steps = append(f.steps, n)
	return f.stepsErr
}

func (f *fakeRunner) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }

func (f *fakeRunner) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func (f *fakeRunner) Close() (error, error) {
	f.closed = true
	return nil, nil
}

func TestMigrator_Up(t *testing.T) {
	r := &fakeRunner{version: 2}
	m := newMigratorWithRunner(r, logging.NewNopLogger())
	assert.NoError(t, m.Up())
}

func TestMigrator_Up_NoChange(t *testing.T) {
	m := newMigratorWithRunner(&fakeRunner{upErr: migrate.ErrNoChange}, logging.NewNopLogger())
	assert.NoError(t, m.Up())
}

func TestMigrator_Up_Failure(t *testing.T) {
	m := newMigratorWithRunner(&fakeRunner{upErr: errors.New("syntax error")}, logging.NewNopLogger())
	err := m.Up()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax error")
}

func TestMigrator_Down(t *testing.T) {
	r := &fakeRunner{}
	m := newMigratorWithRunner(r, logging.NewNopLogger())

	require.NoError(t, m.Down(2))
	assert.Equal(t, []int{-2}, r.steps)

	assert.Error(t, m.Down(0))

	r.stepsErr = migrate.ErrNoChange
	err := m.Down(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no migrations to roll back")
}

func TestMigrator_Status(t *testing.T) {
	m := newMigratorWithRunner(&fakeRunner{version: 3, dirty: true}, logging.NewNopLogger())
	st, err := m.Status()
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{Version: 3, Dirty: true}, st)

	m = newMigratorWithRunner(&fakeRunner{versionErr: migrate.ErrNilVersion}, logging.NewNopLogger())
	st, err = m.Status()
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{}, st)

	m = newMigratorWithRunner(&fakeRunner{versionErr: errors.New("locked")}, logging.NewNopLogger())
	_, err = m.Status()
	assert.Error(t, err)
}

func TestMigrator_ForceAndClose(t *testing.T) {
	r := &fakeRunner{}
	m := newMigratorWithRunner(r, logging.NewNopLogger())

	require.NoError(t, m.Force(1))
	assert.Equal(t, []int{1}, r.forced)

	require.NoError(t, m.Close())
	assert.True(t, r.closed)
}
