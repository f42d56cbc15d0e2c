package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatingFileWriter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")

	writer, err := NewRotatingFileWriter(logFile, 1024, 3)
	require.NoError(t, err)
	defer writer.Close()

	assert.Equal(t, logFile, writer.filePath)
	assert.Equal(t, int64(1024), writer.maxSize)
	assert.Equal(t, 3, writer.maxBackups)

	_, err = NewRotatingFileWriter(logFile, 0, 3)
	assert.Error(t, err)
}

func TestRotatingFileWriter_AppendsToExisting(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, os.WriteFile(logFile, []byte("old\n"), 0600))

	writer, err := NewRotatingFileWriter(logFile, 1024, 3)
	require.NoError(t, err)

	_, err = writer.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(content))
	assert.Equal(t, int64(8), writer.size)
}

func TestRotatingFileWriter_Rotation(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := NewRotatingFileWriter(logFile, 50, 3)
	require.NoError(t, err)
	defer writer.Close()

	firstMsg := strings.Repeat("A", 30) + "\n"
	secondMsg := strings.Repeat("B", 30) + "\n"

	_, err = writer.Write([]byte(firstMsg))
	require.NoError(t, err)
	_, err = writer.Write([]byte(secondMsg))
	require.NoError(t, err)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Equal(t, secondMsg, string(content))

	backup, err := os.ReadFile(filepath.Join(tmpDir, "test.1.log"))
	require.NoError(t, err)
	assert.Equal(t, firstMsg, string(backup))
}

func TestRotatingFileWriter_MaxBackups(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test.log")

	writer, err := NewRotatingFileWriter(logFile, 20, 2)
	require.NoError(t, err)
	defer writer.Close()

	for i := 0; i < 5; i++ {
		msg := fmt.Sprintf("Message %d: %s\n", i, strings.Repeat("X", 15))
		_, err := writer.Write([]byte(msg))
		require.NoError(t, err)
	}

	files, err := os.ReadDir(tmpDir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{"test.log", "test.1.log", "test.2.log"}, names)

	newest, err := os.ReadFile(filepath.Join(tmpDir, "test.1.log"))
	require.NoError(t, err)
	assert.Contains(t, string(newest), "Message 3")
}

func TestRotatingFileWriter_WriteAfterClose(t *testing.T) {
	writer, err := NewRotatingFileWriter(filepath.Join(t.TempDir(), "test.log"), 100, 1)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	_, err = writer.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}

func TestRotatingFileWriter_BackupName(t *testing.T) {
	tmpDir := t.TempDir()
	writer, err := NewRotatingFileWriter(filepath.Join(tmpDir, "app.log"), 1024, 3)
	require.NoError(t, err)
	defer writer.Close()

	assert.Equal(t, filepath.Join(tmpDir, "app.2.log"), writer.backupName(2))
}
