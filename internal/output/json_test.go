package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/oldmonad/cvmInventory/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := output.WriteJSON(&buf, map[string]interface{}{"b": 2, "a": 1})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))
	assert.JSONEq(t, `{"a": 1, "b": 2}`, buf.String())
}

func TestWriteJSONDeterministic(t *testing.T) {
	payload := map[string]interface{}{
		"_meta":     map[string]interface{}{"hostvars": map[string]interface{}{}},
		"instances": []string{"1.2.3.4"},
	}

	var first bytes.Buffer
	require.NoError(t, output.WriteJSON(&first, payload))
	for i := 0; i < 5; i++ {
		var again bytes.Buffer
		require.NoError(t, output.WriteJSON(&again, payload))
		assert.Equal(t, first.String(), again.String())
	}
}

func TestWriteJSONRejectsUnencodable(t *testing.T) {
	var buf bytes.Buffer
	err := output.WriteJSON(&buf, map[string]interface{}{"fn": func() {}})

	assert.Error(t, err)
	assert.Empty(t, buf.String())
}
