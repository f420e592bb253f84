package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStructuredFieldsAreRendered(t *testing.T) {
	var buf bytes.Buffer
	log := New(DEBUG)
	log.SetOutput(&buf)

	log.Infow("subscription updated", "subscriptionID", "sub_123", "status", "active")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "subscription updated")
	assert.Contains(t, out, "subscriptionID=sub_123")
	assert.Contains(t, out, "status=active")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(WARN)
	log.SetOutput(&buf)

	log.Debugw("hidden")
	log.Infow("hidden too")
	log.Warnw("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
}

func TestOddKeyvalsAreMarkedMissing(t *testing.T) {
	var buf bytes.Buffer
	log := New(DEBUG)
	log.SetOutput(&buf)

	log.Infow("odd fields", "key")

	assert.Contains(t, buf.String(), "key=MISSING")
}
