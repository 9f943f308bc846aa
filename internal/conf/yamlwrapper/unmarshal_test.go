package yamlwrapper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	var dest struct {
		Name string `json:"name"`
		List []struct {
			Value int `json:"value"`
		} `json:"list"`
	}

	err := Unmarshal([]byte("name: test\nlist:\n- value: 2\n"), &dest)
	require.NoError(t, err)
	require.Equal(t, "test", dest.Name)
	require.Len(t, dest.List, 1)
	require.Equal(t, 2, dest.List[0].Value)
}

func TestUnmarshalIntegerMapKey(t *testing.T) {
	var dest map[string]any

	err := Unmarshal([]byte("1: value\ntest: value2\n"), &dest)
	require.EqualError(t, err, "integer keys are not supported (1)")
}
