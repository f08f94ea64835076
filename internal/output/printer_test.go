package output

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	TxHash  string         `json:"txHash"`
	AssetID *big.Int       `json:"ipAssetId"`
	Args    map[string]any `json:"args"`
}

func TestPrint(t *testing.T) {
	id, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	v := result{TxHash: "0xabc", AssetID: id, Args: map[string]any{"name": "Acme"}}

	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf, FormatJSON).Print(v))
	assert.JSONEq(t, `{"txHash": "0xabc", "ipAssetId": 123456789012345678901234567890, "args": {"name": "Acme"}}`, buf.String())

	buf.Reset()
	require.NoError(t, NewPrinter(&buf, FormatYAML).Print(v))
	assert.Contains(t, buf.String(), "ipAssetId: 123456789012345678901234567890\n")
	assert.Contains(t, buf.String(), "args:\n    name: Acme\n")
	assert.NotContains(t, buf.String(), "{")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "yml": FormatYAML, "yaml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("toml")
	require.Error(t, err)
}
