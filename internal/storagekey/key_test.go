package storagekey

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive(t *testing.T) {
	tests := []struct {
		namespace string
		want      string
	}{
		{"example.main", "0x183a6125c38840424c4a85fa12bab2ab606c4b6d0e7cc73c0c06ba5300eab500"},
		{"erc7201:example.main", "0x183a6125c38840424c4a85fa12bab2ab606c4b6d0e7cc73c0c06ba5300eab500"},
		{"openzeppelin.storage.Ownable", "0x9016d09d72d40fdae2fd8ceac6b6234c7706214fd39c1cd1e609a0528c199300"},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			key, err := Derive(tt.namespace)
			require.NoError(t, err)
			assert.Equal(t, common.HexToHash(tt.want), key)
			assert.Zero(t, key[31])
		})
	}
}

func TestDeriveEmpty(t *testing.T) {
	_, err := Derive("erc7201:")
	require.Error(t, err)
}
