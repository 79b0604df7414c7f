package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrSignatureMismatch = errors.New("signature does not match address")

// NormalizeAddress canonicalizes a wallet address to lower-case hex form.
// All store lookups and comparisons use this form.
func NormalizeAddress(raw string) (string, error) {
	addr := strings.TrimSpace(raw)
	if !common.IsHexAddress(addr) {
		return "", fmt.Errorf("invalid wallet address %q", raw)
	}
	return strings.ToLower(common.HexToAddress(addr).Hex()), nil
}

// VerifyPersonalSignature checks that signature is a valid EIP-191
// personal_sign of message by the given (canonical) address.
func VerifyPersonalSignature(address, message, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("malformed signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("malformed signature: got %d bytes", len(sig))
	}

	// Wallets emit V as 27/28, secp256k1 recovery wants 0/1.
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("signature recovery failed: %w", err)
	}

	recovered := strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
	if recovered != strings.ToLower(address) {
		return ErrSignatureMismatch
	}
	return nil
}
