package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelPrefixes(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Logger: log.New(&buf, "", 0)}

	l.Infof("listening on %s", ":6379")
	l.Warnf("retrying %d", 3)
	l.Errorf("failed: %v", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	a := assert.New(t)
	a.Len(lines, 3)
	a.True(strings.HasPrefix(lines[0], "INFO: listening on :6379"))
	a.True(strings.HasPrefix(lines[1], "WARN: retrying 3"))
	a.True(strings.HasPrefix(lines[2], "ERROR: failed: boom"))
}
