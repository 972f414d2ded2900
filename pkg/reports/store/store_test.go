package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hikmetpinarbas/hpfa-go/pkg/fingerprint"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(db, DialectPostgres, Options{})
	require.NoError(t, err)
	return s, mock
}

func TestEnsureSchema(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS hpfa_baseline_actions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS hpfa_canon_manifest")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.EnsureSchema(context.Background())
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveBaseline_ReplacesAndDedupes(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM hpfa_baseline_actions")).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hpfa_baseline_actions (provider_action) VALUES ($1)")).
		WithArgs("PASS").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hpfa_baseline_actions (provider_action) VALUES ($1)")).
		WithArgs("SHOT").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := s.SaveBaseline(context.Background(), []string{"PASS", "SHOT", "PASS"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadBaseline_SortsResult(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"provider_action"}).
		AddRow("SHOT").
		AddRow("PASS")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT provider_action FROM hpfa_baseline_actions")).
		WillReturnRows(rows)

	out, err := s.LoadBaseline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"PASS", "SHOT"}, out)
}

func TestSaveManifest_RejectsNonSHA256(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.SaveManifest(context.Background(), fingerprint.Manifest{Algo: "md5"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveManifest_PersistsSortedRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM hpfa_canon_manifest")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hpfa_canon_manifest")).
		WithArgs("a.json", "sha256", "v1", "deadbeef").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO hpfa_canon_manifest")).
		WithArgs("b.json", "sha256", "v1", "cafef00d").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	m := fingerprint.Manifest{
		Algo:    "sha256",
		Version: "v1",
		Files: map[string]string{
			"b.json": "cafef00d",
			"a.json": "deadbeef",
		},
	}
	err := s.SaveManifest(context.Background(), m)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadManifest_DetectsMixedAlgoDisagreement(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"path", "algo", "version", "digest"}).
		AddRow("a.json", "sha256", "v1", "deadbeef").
		AddRow("b.json", "md5", "v1", "cafef00d")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT path, algo, version, digest FROM hpfa_canon_manifest")).
		WillReturnRows(rows)

	_, err := s.LoadManifest(context.Background())
	assert.Error(t, err)
}

func TestNew_RejectsUnknownDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db, Dialect("oracle"), Options{})
	assert.Error(t, err)
}

func TestNew_RejectsNilDB(t *testing.T) {
	_, err := New(nil, DialectPostgres, Options{})
	assert.Error(t, err)
}
