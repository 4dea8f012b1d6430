package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountFamily(t *testing.T) {
	assert.Equal(t, FamilyEVM, AccountFamily("0x742d35Cc6634C0532925a3b844Bc454e4438f44e"))
	assert.Equal(t, FamilyMove, AccountFamily("0x"+strings.Repeat("ab", 32)))
	assert.Equal(t, NetworkFamily(""), AccountFamily("742d35Cc6634C0532925a3b844Bc454e4438f44e00"))
	assert.Equal(t, NetworkFamily(""), AccountFamily("0x1234"))
}

func TestFormatTokenAddress(t *testing.T) {
	assert.Equal(t, "0x6b175474e89094c44da98b954eedeac495271d0f",
		FormatTokenAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F", NetworkEthereum))
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"2::sui::SUI", FormatTokenAddress("0x2::sui::SUI", NetworkSui))
	assert.Equal(t, "0x"+strings.Repeat("0", 63)+"2::sui::SUI", FormatTokenAddress(strings.Repeat("0", 63)+"2::sui::SUI", NetworkSui))
}
