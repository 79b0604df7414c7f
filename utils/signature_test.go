package utils

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	got, err := NormalizeAddress("  0xAAaaAAAAaaAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA ")
	require.NoError(t, err)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", got)

	_, err = NormalizeAddress("not-an-address")
	assert.Error(t, err)

	_, err = NormalizeAddress("")
	assert.Error(t, err)
}

func TestVerifyPersonalSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	message := "Sign in to the chat at 2025-06-01T12:00:00Z"
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)

	require.NoError(t, VerifyPersonalSignature(address, message, hexutil.Encode(sig)))

	// Wallets report V as 27/28; both encodings must verify.
	walletSig := append([]byte(nil), sig...)
	walletSig[crypto.RecoveryIDOffset] += 27
	require.NoError(t, VerifyPersonalSignature(address, message, hexutil.Encode(walletSig)))
}

func TestVerifyPersonalSignatureRejects(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex())

	message := "hello"
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	encoded := hexutil.Encode(sig)

	// Wrong signer.
	assert.ErrorIs(t,
		VerifyPersonalSignature("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", message, encoded),
		ErrSignatureMismatch)

	// Tampered message.
	assert.Error(t, VerifyPersonalSignature(address, "goodbye", encoded))

	// Garbage signature.
	assert.Error(t, VerifyPersonalSignature(address, message, "0x1234"))
	assert.Error(t, VerifyPersonalSignature(address, message, "nothex"))
}
