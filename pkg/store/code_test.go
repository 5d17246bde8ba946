// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newMockCodes(t *testing.T) (*CodeSQLite, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewCodeSQLite(db).WithCost(bcrypt.MinCost), mock
}

func hashRow(t *testing.T, code string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"hash"}).AddRow(string(hash))
}

func TestCodeSQLite_Store(t *testing.T) {
	repo, mock := newMockCodes(t)

	mock.ExpectExec(regexp.QuoteMeta(upsertCodeSQL)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NoError(t, repo.Store(context.Background(), []byte("1805")))
}

func TestCodeSQLite_Verify(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{"match", "1805", true},
		{"mismatch", "0000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockCodes(t)
			mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).WillReturnRows(hashRow(t, "1805"))

			ok, err := repo.Verify(context.Background(), []byte(tt.code))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCodeSQLite_VerifyWithoutCode(t *testing.T) {
	repo, mock := newMockCodes(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).WillReturnError(sql.ErrNoRows)

	ok, err := repo.Verify(context.Background(), []byte("1805"))
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrNoCode)
}

func TestCodeSQLite_EnsureDefault(t *testing.T) {
	t.Run("writes when empty", func(t *testing.T) {
		repo, mock := newMockCodes(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(regexp.QuoteMeta(upsertCodeSQL)).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		written, err := repo.EnsureDefault(context.Background(), []byte("1805"))
		require.NoError(t, err)
		assert.True(t, written)
	})

	t.Run("keeps existing code", func(t *testing.T) {
		repo, mock := newMockCodes(t)
		mock.ExpectQuery(regexp.QuoteMeta(selectCodeSQL)).WillReturnRows(hashRow(t, "4321"))

		written, err := repo.EnsureDefault(context.Background(), []byte("1805"))
		require.NoError(t, err)
		assert.False(t, written)
	})
}
