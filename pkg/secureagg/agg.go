package secureagg

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrDimensionMismatch signals that a mask and gradient disagree in length.
var ErrDimensionMismatch = errors.New("mask dimension mismatch")

// KeyPair is a private scalar in [1, Order-1] with its public curve point.
type KeyPair struct {
	PrivateKey int64
	PublicKey  Point
}

// SharedSecret is the ECDH result: the shared point plus 32 bytes of key
// material stretched from it. The stretch is a plain SHA-256 pass, not a
// vetted KDF; acceptable only because the whole curve is a demonstration.
type SharedSecret struct {
	Point       Point
	KeyMaterial [32]byte
}

// AggregationMask is one peer's additive mask. Masks generated by the two
// ends of a pair are exact negations of each other.
type AggregationMask struct {
	Mask          []float64 `json:"mask"`
	PeerPublicKey Point     `json:"peer_public_key"`
	SessionID     string    `json:"session_id"`
}

// GenerateKeyPair draws a uniformly random private key from a
// cryptographically seeded source and derives the public point.
func GenerateKeyPair() (KeyPair, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return KeyPair{}, fmt.Errorf("read random: %w", err)
	}
	priv := int64(binary.BigEndian.Uint64(buf[:])%uint64(Order-1)) + 1

	pub, err := ScalarMultiply(priv, Generator())
	if err != nil {
		return KeyPair{}, fmt.Errorf("derive public key: %w", err)
	}
	return KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// ComputeSharedSecret derives the ECDH shared secret between my private key
// and the peer's public point. For key pairs (a, A) and (b, B),
// ComputeSharedSecret(a, B) and ComputeSharedSecret(b, A) yield the same
// point.
func ComputeSharedSecret(myPrivate int64, theirPublic Point) (SharedSecret, error) {
	if myPrivate <= 0 {
		return SharedSecret{}, fmt.Errorf("private key out of range: %d", myPrivate)
	}
	point, err := ScalarMultiply(myPrivate, theirPublic)
	if err != nil {
		return SharedSecret{}, fmt.Errorf("scalar multiply: %w", err)
	}

	var material [8 * 2]byte
	binary.BigEndian.PutUint64(material[0:8], uint64(point.X))
	binary.BigEndian.PutUint64(material[8:16], uint64(point.Y))
	return SharedSecret{Point: point, KeyMaterial: sha256.Sum256(material[:])}, nil
}

// GenerateAggregationMasks derives one mask per peer. Each mask is expanded
// deterministically from the pairwise shared secret and signed by
// lexicographic comparison of the two public keys, so the peer's mask toward
// us is the exact negation of ours toward them and the pair cancels in the
// aggregate sum.
func GenerateAggregationMasks(my KeyPair, peerPublicKeys []Point, dim int) ([]AggregationMask, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("mask dimension must be positive, got %d", dim)
	}
	masks := make([]AggregationMask, 0, len(peerPublicKeys))
	for _, peer := range peerPublicKeys {
		secret, err := ComputeSharedSecret(my.PrivateKey, peer)
		if err != nil {
			return nil, fmt.Errorf("shared secret for peer (%d,%d): %w", peer.X, peer.Y, err)
		}
		mask := expandMask(secret.KeyMaterial, dim)
		if comparePoints(my.PublicKey, peer) > 0 {
			for i := range mask {
				mask[i] = -mask[i]
			}
		}
		masks = append(masks, AggregationMask{
			Mask:          mask,
			PeerPublicKey: peer,
			SessionID:     uuid.NewString(),
		})
	}
	return masks, nil
}

// ApplyMasks adds every mask elementwise onto a copy of gradient. Any mask
// whose length differs from the gradient is a contract violation.
func ApplyMasks(gradient []float64, masks []AggregationMask) ([]float64, error) {
	out := make([]float64, len(gradient))
	copy(out, gradient)
	for i, m := range masks {
		if len(m.Mask) != len(gradient) {
			return nil, fmt.Errorf("%w: gradient has %d dimensions, mask %d has %d",
				ErrDimensionMismatch, len(gradient), i, len(m.Mask))
		}
		for j, v := range m.Mask {
			out[j] += v
		}
	}
	return out, nil
}

// expandMask stretches key material into dim floats in [-1, 1) using a
// SHA-256 counter stream. Both peers derive identical values because the
// shared secret is symmetric.
func expandMask(material [32]byte, dim int) []float64 {
	mask := make([]float64, dim)
	var block [32 + 4]byte
	copy(block[:32], material[:])
	produced := 0
	counter := uint32(0)
	for produced < dim {
		binary.BigEndian.PutUint32(block[32:], counter)
		digest := sha256.Sum256(block[:])
		for off := 0; off+8 <= len(digest) && produced < dim; off += 8 {
			u := binary.BigEndian.Uint64(digest[off : off+8])
			// u / 2^63 lies in [0, 2); shifting down centers it on zero.
			mask[produced] = float64(u)/float64(1<<63) - 1
			produced++
		}
		counter++
	}
	return mask
}

// comparePoints orders points by X, then Y.
func comparePoints(a, b Point) int {
	switch {
	case a.X != b.X:
		if a.X < b.X {
			return -1
		}
		return 1
	case a.Y != b.Y:
		if a.Y < b.Y {
			return -1
		}
		return 1
	default:
		return 0
	}
}
