package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

type Signature struct {
	Data []byte
}

// Sign takes a private key and message and returns a signature over the
// keccak hash of the message.
func Sign(privatekey string, msg []byte) (*Signature, error) {
	privateKey, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return nil, err
	}

	hash := crypto.Keccak256Hash(msg)

	sig, err := crypto.Sign(hash.Bytes(), privateKey)
	if err != nil {
		return nil, err
	}

	return &Signature{
		Data: sig,
	}, nil
}

// Verify verifies a signature against the key holder's private key.
func Verify(sig *Signature, privatekey string, msg []byte) (bool, error) {
	privateKey, err := crypto.HexToECDSA(privatekey)
	if err != nil {
		return false, err
	}

	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return false, fmt.Errorf("cannot assert type: publicKey is not of type *ecdsa.PublicKey")
	}

	publicKeyBytes := crypto.FromECDSAPub(publicKeyECDSA)
	hash := crypto.Keccak256Hash(msg)

	signatureNoRecoverID := sig.Data[:len(sig.Data)-1]
	return crypto.VerifySignature(publicKeyBytes, hash.Bytes(), signatureNoRecoverID), nil
}

// ToPublic converts private key to public key
func ToPublic(priv string) (string, *ecdsa.PublicKey, error) {
	if priv == "" || len(strings.TrimSpace(priv)) == 0 {
		return "", nil, fmt.Errorf("invalid private key")
	}

	privateKeyBytes, err := hex.DecodeString(priv)
	if err != nil {
		return "", nil, err
	}

	privateKey, err := crypto.ToECDSA(privateKeyBytes)
	if err != nil {
		return "", nil, err
	}

	publicKey := privateKey.Public()
	publicKeyECDSA, ok := publicKey.(*ecdsa.PublicKey)
	if !ok {
		return "", nil, fmt.Errorf("cannot assert type: publicKey is not of type *ecdsa.PublicKey")
	}

	publicKeyBytes := crypto.FromECDSAPub(publicKeyECDSA)
	publicK := hexutil.Encode(publicKeyBytes)[4:]
	return publicK, publicKeyECDSA, nil
}
