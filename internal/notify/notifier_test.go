package notify

import (
	"bytes"
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewLog(log.New(&buf, "", 0))

	err := n.Send(context.Background(), "a@x.com", TemplateVerificationCode, map[string]any{"code": "123456"})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "identity=a@x.com")
	assert.Contains(t, buf.String(), "template="+TemplateVerificationCode)
}
