package shared

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("admin")
	require.NoError(t, err)
	require.True(t, id.IsAdmin())
	require.Equal(t, "admin", id.String())

	id, err = ParseID("42")
	require.NoError(t, err)
	require.False(t, id.IsAdmin())
	n, ok := id.Seq()
	require.True(t, ok)
	require.Equal(t, int64(42), n)

	_, err = ParseID("not-an-id")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestNextIDIgnoresSentinel(t *testing.T) {
	ids := []EntityID{AdministratorID, NumericID(3), NumericID(7)}
	require.Equal(t, "8", NextID(ids).String())

	require.Equal(t, "1", NextID(nil).String())
	require.Equal(t, "1", NextID([]EntityID{AdministratorID}).String())
}

func TestEntityIDJSON(t *testing.T) {
	var id EntityID
	require.NoError(t, json.Unmarshal([]byte(`"admin"`), &id))
	require.True(t, id.IsAdmin())

	// Documents written by earlier revisions store generated ids as numbers.
	require.NoError(t, json.Unmarshal([]byte(`5`), &id))
	require.Equal(t, "5", id.String())

	out, err := json.Marshal(NumericID(5))
	require.NoError(t, err)
	require.JSONEq(t, `"5"`, string(out))

	require.Error(t, json.Unmarshal([]byte(`true`), &id))
}
