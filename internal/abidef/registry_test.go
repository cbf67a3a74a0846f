package abidef

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinnedSelectorsMatchSignatures(t *testing.T) {
	assert.Equal(t, FinaliseSelector[:], crypto.Keccak256([]byte(FinaliseSignature))[:4])
	assert.Equal(t, FillSelector[:], crypto.Keccak256([]byte(FillSignature))[:4])
}

func TestSignatureLookup(t *testing.T) {
	sig, err := Signature(ContractSettlerCompact, "finalise")
	require.NoError(t, err)
	assert.Equal(t, FinaliseSignature, sig)

	sig, err = Signature(ContractCoinFiller, "fill")
	require.NoError(t, err)
	assert.Equal(t, FillSignature, sig)

	_, err = Signature("NoSuchContract", "fill")
	assert.Error(t, err)

	_, err = Signature(ContractCoinFiller, "finalise")
	assert.Error(t, err)
}

func TestFunctions(t *testing.T) {
	names, err := Functions(ContractTheCompact)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"deposit", "withdraw", "__registerAllocator"}, names)

	_, err = Functions("NoSuchContract")
	assert.Error(t, err)
}
