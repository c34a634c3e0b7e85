package redis_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func defaultKey(id string) string { return "foreman:run:" + id }

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
