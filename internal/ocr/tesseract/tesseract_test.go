package tesseract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecognizeHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(300)
	_, err := e.Recognize(ctx, []byte("png"), "tam")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "tesseract", e.Name())
}
