package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	t.Run("NonInteractiveWritesOnlySummary", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgress(&buf, "a.avi", 2048, false)
		p.Update(1024)
		assert.Empty(t, buf.String())

		p.Update(2048)
		p.Done(nil)
		assert.Contains(t, buf.String(), "a.avi: 2.00 KiB in ")
		assert.NotContains(t, buf.String(), "\r")
	})

	t.Run("InteractiveDrawsPercentage", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgress(&buf, "a.avi", 2048, true)
		p.Update(2048)
		assert.Contains(t, buf.String(), "2.00 KiB / 2.00 KiB  100%")
	})

	t.Run("UnknownTotal", func(t *testing.T) {
		p := NewProgress(&bytes.Buffer{}, "x", 0, true)
		p.done = 512
		assert.Equal(t, "x  512 B", p.line())
	})

	t.Run("Failure", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgress(&buf, "a.avi", 10, false)
		p.Done(errors.New("disk full"))
		assert.Contains(t, buf.String(), "failed after 0 B: disk full")
	})
}
