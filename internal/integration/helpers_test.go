package integration_test

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// volatileFields change on every call and are skipped at any depth.
var volatileFields = map[string]struct{}{
	"timestamp": {},
	"requestId": {},
	"uptime":    {},
	"version":   {},
}

var ignoreVolatile = cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
	_, ok := volatileFields[k]
	return ok
})

func assertJSONBody(t testing.TB, body io.Reader, want string) {
	t.Helper()

	var got, expected map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&got))
	require.NoError(t, json.Unmarshal([]byte(want), &expected))

	if diff := cmp.Diff(expected, got, ignoreVolatile); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}
