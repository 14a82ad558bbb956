package oracle

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"raffle-ledger/internal/raffle"

	"github.com/tonkeeper/tongo/ton"
	"github.com/tonkeeper/tongo/wallet"
)

var (
	ErrNoKey        = errors.New("oracle: neither mnemonic nor seed provided")
	ErrInvalidSeed  = errors.New("oracle: seed must be 32 bytes of hex")
	ErrInvalidProof = errors.New("oracle: proof does not verify")
)

// Oracle answers randomness requests. The random value is the SHA-256 of an ed25519
// signature over the request, so anyone holding the public key can check it.
type Oracle struct {
	key ed25519.PrivateKey
}

// Response is a fulfillment together with the signature it was derived from.
type Response struct {
	raffle.Fulfillment
	Proof []byte
}

func New(key ed25519.PrivateKey) *Oracle {
	return &Oracle{key: key}
}

// FromMnemonic derives the key the same way a TON wallet does.
func FromMnemonic(mnemonic string) (*Oracle, error) {
	key, err := wallet.SeedToPrivateKey(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("oracle: derive key from mnemonic: %w", err)
	}
	return New(key), nil
}

func FromSeed(seedHex string) (*Oracle, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, ErrInvalidSeed
	}
	return New(ed25519.NewKeyFromSeed(seed)), nil
}

// Load prefers the mnemonic and falls back to the hex seed.
func Load(mnemonic, seedHex string) (*Oracle, error) {
	switch {
	case mnemonic != "":
		return FromMnemonic(mnemonic)
	case seedHex != "":
		return FromSeed(seedHex)
	default:
		return nil, ErrNoKey
	}
}

// Identity is the oracle's public key, the caller identity settle-draw checks.
func (o *Oracle) Identity() ton.Bits256 {
	var identity ton.Bits256
	copy(identity[:], o.key.Public().(ed25519.PublicKey))
	return identity
}

func message(request ton.Bits256, slot uint64) []byte {
	m := make([]byte, 0, len(request)+8)
	m = append(m, request[:]...)
	return binary.BigEndian.AppendUint64(m, slot)
}

// Generate answers the request recorded at slot.
func (o *Oracle) Generate(request ton.Bits256, slot uint64) Response {
	proof := ed25519.Sign(o.key, message(request, slot))
	return Response{
		Fulfillment: raffle.Fulfillment{
			Request:    request,
			Slot:       slot,
			Randomness: sha256.Sum256(proof),
		},
		Proof: proof,
	}
}

// Verify checks that proof was produced by the holder of identity for request and slot
// and returns the randomness it commits to.
func Verify(identity ton.Bits256, request ton.Bits256, slot uint64, proof []byte) ([32]byte, error) {
	if len(proof) != ed25519.SignatureSize || !ed25519.Verify(identity[:], message(request, slot), proof) {
		return [32]byte{}, ErrInvalidProof
	}
	return sha256.Sum256(proof), nil
}
