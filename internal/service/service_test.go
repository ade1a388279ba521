package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codesweep/codesweep/internal/backup"
	"github.com/codesweep/codesweep/internal/telemetry"
	"github.com/codesweep/codesweep/internal/vscode"
)

// newTestService builds a Service over a temp global storage directory.
// The target files are only created when content is supplied.
func newTestService(t *testing.T, dbEntries map[string]string, doc string) *Service {
	t.Helper()
	paths := vscode.ForPlatform("linux", t.TempDir())
	require.NoError(t, os.MkdirAll(paths.GlobalStorage(), 0o755))

	if dbEntries != nil {
		createStore(t, paths.StateDB, dbEntries)
	}
	if doc != "" {
		require.NoError(t, os.WriteFile(paths.StorageJSON, []byte(doc), 0o644))
	}

	svc := New(paths, Options{})
	svc.sleep = func(time.Duration) {}
	return svc
}

func createStore(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE ItemTable (key TEXT UNIQUE ON CONFLICT REPLACE, value BLOB)`)
	require.NoError(t, err)
	for k, v := range entries {
		_, err = db.Exec(`INSERT INTO ItemTable (key, value) VALUES (?, ?)`, k, v)
		require.NoError(t, err)
	}
}

const testDoc = `{
	"telemetry.machineId": "` +
	"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" + `",
	"telemetry.devDeviceId": "11111111-1111-4111-8111-111111111111",
	"other.flag": true
}`

func TestCleanStateDBRemovesMatchingRows(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"augment.sessionId": "x",
		"editor.fontSize":   "14",
	}, "")

	res := svc.CleanStateDB(context.Background())
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.EntriesAffected)
	assert.FileExists(t, res.BackupPath)
	assert.Equal(t, svc.paths.StateDB+backup.Suffix, res.BackupPath)
}

func TestCleanStateDBIdempotent(t *testing.T) {
	svc := newTestService(t, map[string]string{"augment.a": "1"}, "")
	ctx := context.Background()

	first := svc.CleanStateDB(ctx)
	require.True(t, first.Success)
	assert.Equal(t, 1, first.EntriesAffected)

	second := svc.CleanStateDB(ctx)
	assert.True(t, second.Success)
	assert.Zero(t, second.EntriesAffected)
}

func TestCleanStateDBNoMatchesIsSuccess(t *testing.T) {
	svc := newTestService(t, map[string]string{"editor.fontSize": "14"}, "")

	res := svc.CleanStateDB(context.Background())
	assert.True(t, res.Success)
	assert.Zero(t, res.EntriesAffected)
	// The backup is still created before the count.
	assert.FileExists(t, res.BackupPath)
}

func TestCleanStateDBMissingStore(t *testing.T) {
	svc := newTestService(t, nil, "")

	res := svc.CleanStateDB(context.Background())
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not found")
	assert.Zero(t, res.EntriesAffected)
	assert.Empty(t, res.BackupPath)
	assert.NoFileExists(t, backup.PathFor(svc.paths.StateDB))
}

func TestRandomizeTelemetry(t *testing.T) {
	svc := newTestService(t, nil, testDoc)

	res := svc.RandomizeTelemetry(nil)
	require.True(t, res.Success, "error: %s", res.Error)
	assert.FileExists(t, res.BackupPath)

	require.NotNil(t, res.OldPair)
	assert.Equal(t, strings.Repeat("a", 64), res.OldPair.MachineID)
	require.NotNil(t, res.NewPair)
	assert.True(t, res.NewPair.Valid())
	assert.NotEqual(t, res.OldPair.MachineID, res.NewPair.MachineID)
	assert.NotEqual(t, res.OldPair.DeviceID, res.NewPair.DeviceID)

	// The untouched field round-trips.
	raw, err := os.ReadFile(svc.paths.StorageJSON)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, true, doc["other.flag"])
	assert.Equal(t, res.NewPair.MachineID, doc[telemetry.MachineIDKey])
}

func TestRandomizeTelemetryCallerSuppliedPair(t *testing.T) {
	svc := newTestService(t, nil, testDoc)

	pair := telemetry.IdentifierPair{
		MachineID: strings.Repeat("0123456789abcdef", 4),
		DeviceID:  "7c9e6679-7425-40de-944b-e07fc1f90ae7",
	}
	res := svc.RandomizeTelemetry(&pair)
	require.True(t, res.Success)
	require.NotNil(t, res.NewPair)
	assert.Equal(t, pair, *res.NewPair)

	got := telemetry.ReadCurrent(svc.paths.StorageJSON)
	require.NotNil(t, got)
	assert.Equal(t, pair, *got)
}

func TestRandomizeTelemetryNoPriorIdentifiers(t *testing.T) {
	svc := newTestService(t, nil, `{"other.flag": true}`)

	res := svc.RandomizeTelemetry(nil)
	require.True(t, res.Success)
	assert.Nil(t, res.OldPair)
	require.NotNil(t, res.NewPair)
	assert.True(t, res.NewPair.Valid())
}

func TestRandomizeTelemetryMissingDocument(t *testing.T) {
	svc := newTestService(t, nil, "")

	res := svc.RandomizeTelemetry(nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "not found")
	assert.NoFileExists(t, backup.PathFor(svc.paths.StorageJSON))
}

func TestRandomizeTelemetryMalformedDocument(t *testing.T) {
	svc := newTestService(t, nil, `{broken`)

	res := svc.RandomizeTelemetry(nil)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "parse document")
	// The backup was taken before the parse and stays for recovery; the
	// original is untouched.
	assert.FileExists(t, res.BackupPath)
	raw, err := os.ReadFile(svc.paths.StorageJSON)
	require.NoError(t, err)
	assert.Equal(t, `{broken`, string(raw))
}

func TestRunAllBothTargets(t *testing.T) {
	svc := newTestService(t, map[string]string{"augment.a": "1"}, testDoc)

	res := svc.RunAll(context.Background())
	assert.True(t, res.OverallSuccess)
	require.NotNil(t, res.Database)
	assert.Equal(t, 1, res.Database.EntriesAffected)
	require.NotNil(t, res.Telemetry)
	assert.True(t, res.Telemetry.Success)
}

func TestRunAllSkipsAbsentTargets(t *testing.T) {
	svc := newTestService(t, map[string]string{"augment.a": "1"}, "")

	res := svc.RunAll(context.Background())
	assert.True(t, res.OverallSuccess)
	require.NotNil(t, res.Database)
	assert.Nil(t, res.Telemetry)

	// Nothing at all to do still aggregates as success.
	empty := newTestService(t, nil, "")
	res = empty.RunAll(context.Background())
	assert.True(t, res.OverallSuccess)
	assert.Nil(t, res.Database)
	assert.Nil(t, res.Telemetry)
}

func TestCapabilities(t *testing.T) {
	both := newTestService(t, map[string]string{}, testDoc)
	caps := both.Capabilities()
	assert.True(t, caps.CanCleanDatabase)
	assert.True(t, caps.CanModifyTelemetry)
	assert.True(t, caps.CanRunAll)

	none := newTestService(t, nil, "")
	caps = none.Capabilities()
	assert.False(t, caps.CanCleanDatabase)
	assert.False(t, caps.CanModifyTelemetry)
	assert.False(t, caps.CanRunAll)

	dbOnly := newTestService(t, map[string]string{}, "")
	caps = dbOnly.Capabilities()
	assert.True(t, caps.CanCleanDatabase)
	assert.False(t, caps.CanModifyTelemetry)
	assert.True(t, caps.CanRunAll)
}

func TestStatus(t *testing.T) {
	svc := newTestService(t, map[string]string{
		"augment.a":       "1",
		"editor.fontSize": "14",
	}, testDoc)

	st := svc.Status(context.Background())
	assert.True(t, st.Installed)
	assert.Equal(t, "editor installation complete and ready", st.Message)
	require.NotNil(t, st.Database)
	assert.Equal(t, 2, st.Database.TotalEntries)
	assert.Equal(t, 1, st.Database.MatchingEntries)
	require.NotNil(t, st.Telemetry)
	assert.True(t, st.Telemetry.HasIdentifiers)
}

func TestBackupsAndTrim(t *testing.T) {
	svc := newTestService(t, map[string]string{"augment.a": "1"}, testDoc)
	svc.keep = 1
	ctx := context.Background()

	// Each mutation leaves one backup per target.
	require.True(t, svc.CleanStateDB(ctx).Success)
	require.True(t, svc.RandomizeTelemetry(nil).Success)

	infos, err := svc.Backups()
	require.NoError(t, err)
	assert.Len(t, infos, 2)

	removed, err := svc.TrimBackups()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	infos, err = svc.Backups()
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

// fakeEditor scripts the process lifecycle boundary.
type fakeEditor struct {
	running   bool
	stopOK    bool
	startOK   bool
	stopped   bool
	started   int
	workspace string
}

func (f *fakeEditor) IsRunning() bool { return f.running }
func (f *fakeEditor) Stop() bool      { f.stopped = true; return f.stopOK }
func (f *fakeEditor) Start(workspace string) bool {
	f.started++
	f.workspace = workspace
	return f.startOK
}

func TestRestartWhenRunning(t *testing.T) {
	editor := &fakeEditor{running: true, stopOK: true, startOK: true}
	svc := newTestService(t, nil, "")
	svc.editor = editor

	res := svc.Restart("/w")
	assert.True(t, res.Success)
	assert.True(t, res.WasRunning)
	assert.True(t, res.Closed)
	assert.True(t, res.Started)
	assert.Equal(t, "editor restarted", res.Message)
	assert.Equal(t, "/w", editor.workspace)
}

func TestRestartWhenNotRunning(t *testing.T) {
	editor := &fakeEditor{startOK: true}
	svc := newTestService(t, nil, "")
	svc.editor = editor

	res := svc.Restart("")
	assert.True(t, res.Success)
	assert.False(t, res.WasRunning)
	assert.False(t, res.Closed)
	assert.True(t, res.Started)
	assert.Equal(t, "editor started", res.Message)
	assert.False(t, editor.stopped)
}

func TestRestartStopFailure(t *testing.T) {
	editor := &fakeEditor{running: true, stopOK: false}
	svc := newTestService(t, nil, "")
	svc.editor = editor

	res := svc.Restart("")
	assert.False(t, res.Success)
	assert.True(t, res.WasRunning)
	assert.False(t, res.Closed)
	assert.Zero(t, editor.started)
	assert.Equal(t, "failed to stop editor processes", res.Message)
}

func TestRestartRelaunchFailure(t *testing.T) {
	editor := &fakeEditor{running: true, stopOK: true, startOK: false}
	svc := newTestService(t, nil, "")
	svc.editor = editor

	res := svc.Restart("")
	assert.False(t, res.Success)
	assert.True(t, res.Closed)
	assert.False(t, res.Started)
	assert.Equal(t, "editor stopped but failed to relaunch", res.Message)
}
