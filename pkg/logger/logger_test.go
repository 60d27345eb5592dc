package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, New("warning").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("loud").GetLevel())

	_, isJSON := New("info").Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)
}
