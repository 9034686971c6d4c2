package logging

import (
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	log, closer, err := New(Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestNew_Defaults(t *testing.T) {
	log, closer, err := New(Config{})
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNew_Rejects(t *testing.T) {
	_, _, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, _, err = New(Config{Format: "xml"})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "echo.log")
	log, closer, err := New(Config{File: path})
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)
}
