package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDollar(t *testing.T) {
	assert.Equal(t, "SELECT data FROM t WHERE a = $1 AND b = $2", Dollar("SELECT data FROM t WHERE a = ? AND b = ?"))
	assert.Equal(t, "SELECT 1", Dollar("SELECT 1"))
}

func TestNullRawMessage(t *testing.T) {
	assert.False(t, ToNullRawMessage(nil).Valid)
	assert.Nil(t, FromNullRawMessage(ToNullRawMessage(nil)))

	v := ToNullRawMessage([]byte(`{"a":1}`))
	assert.True(t, v.Valid)
	assert.Equal(t, []byte(`{"a":1}`), FromNullRawMessage(v))
}
