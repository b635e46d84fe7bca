package main

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/storage"
)

func TestRun(t *testing.T) {
	t.Setenv("SQLITE_DB_PATH", "")
	dbPath := filepath.Join(t.TempDir(), "users.db")

	t.Run("creates account with flag password", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-email", "Alice@Example.com", "-user", "alice", "-password", "secret", "-db", dbPath, "-cost", "4"},
			strings.NewReader(""), &stdout, &stderr)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Account alice@example.com created with ID 1")
	})

	t.Run("reads password from stdin", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-email", "bob@example.com", "-user", "bob", "-db", dbPath, "-cost", "4"},
			strings.NewReader("hunter2\n"), &stdout, &stderr)
		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "Password: ")
		assert.Contains(t, stdout.String(), "Account bob@example.com created")
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-email", "alice@example.com", "-user", "again", "-password", "x", "-db", dbPath, "-cost", "4"},
			strings.NewReader(""), &stdout, &stderr)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")
	})

	t.Run("rejects empty password", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-email", "c@example.com", "-user", "c", "-db", dbPath},
			strings.NewReader("   \n"), &stdout, &stderr)
		assert.EqualError(t, err, "password cannot be empty")
	})

	t.Run("requires email and user", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-user", "x"}, strings.NewReader(""), &stdout, &stderr)
		require.Error(t, err)
		assert.Contains(t, stdout.String(), "Usage: adduser")
	})

	t.Run("help", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		err := run([]string{"-h"}, strings.NewReader(""), &stdout, &stderr)
		assert.ErrorIs(t, err, flag.ErrHelp)
	})

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	defer repo.Close()

	account, err := repo.GetAccountByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", account.Username)
	assert.NotEqual(t, "secret", account.PasswordHash)
}
