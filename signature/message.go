package signature

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/starnotary/notary/common"
	"golang.org/x/crypto/ripemd160"
)

const (
	MagicPrefix = "\x18Bitcoin Signed Message:\n"

	// P2PKH address versions
	MainNetPubKeyHash byte = 0x00
	TestNetPubKeyHash byte = 0x6f

	compactSignatureLength = 65
)

// Verifier checks that signature was produced over message by the key that
// controls address.
type Verifier interface {
	Verify(address, message, signature string) (bool, error)
}

// BitcoinMessageVerifier verifies base64 compact signatures in the
// "Bitcoin Signed Message" format produced by common wallets.
type BitcoinMessageVerifier struct{}

func NewVerifier() *BitcoinMessageVerifier {
	return &BitcoinMessageVerifier{}
}

func (BitcoinMessageVerifier) Verify(address, message, signature string) (bool, error) {
	return Verify(address, message, signature)
}

func writeVarInt(buf *bytes.Buffer, n uint64) {
	var scratch [9]byte
	switch {
	case n < 0xfd:
		buf.WriteByte(byte(n))
	case n <= 0xffff:
		scratch[0] = 0xfd
		binary.LittleEndian.PutUint16(scratch[1:], uint16(n))
		buf.Write(scratch[:3])
	case n <= 0xffffffff:
		scratch[0] = 0xfe
		binary.LittleEndian.PutUint32(scratch[1:], uint32(n))
		buf.Write(scratch[:5])
	default:
		scratch[0] = 0xff
		binary.LittleEndian.PutUint64(scratch[1:], n)
		buf.Write(scratch[:9])
	}
}

// MessageHash returns the double SHA-256 of the prefixed message.
func MessageHash(message string) []byte {
	var buf bytes.Buffer
	buf.WriteString(MagicPrefix)
	writeVarInt(&buf, uint64(len(message)))
	buf.WriteString(message)

	first := sha256.Sum256(buf.Bytes())
	second := sha256.Sum256(first[:])
	return second[:]
}

// Hash160 returns RIPEMD160(SHA256(data)).
func Hash160(data []byte) []byte {
	sum := sha256.Sum256(data)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

func serializePubKey(pub *secp256k1.PublicKey, compressed bool) []byte {
	if compressed {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}

// AddressFromPubKey returns the P2PKH address of pub for the given version.
func AddressFromPubKey(pub *secp256k1.PublicKey, compressed bool, version byte) string {
	return common.EncodeCheck(version, Hash160(serializePubKey(pub, compressed)))
}

// Verify reports whether signature over message recovers to address. A
// signature or address that cannot be decoded is an error, a well formed
// signature from another key is (false, nil).
func Verify(address, message, signature string) (bool, error) {
	version, pubKeyHash, err := common.DecodeCheck(address)
	if err != nil {
		return false, fmt.Errorf("invalid address: %w", err)
	}
	if version != MainNetPubKeyHash && version != TestNetPubKeyHash {
		return false, fmt.Errorf("unsupported address version 0x%02x", version)
	}
	if len(pubKeyHash) != ripemd160.Size {
		return false, fmt.Errorf("invalid address payload length %d", len(pubKeyHash))
	}

	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != compactSignatureLength {
		return false, fmt.Errorf("invalid signature length %d", len(sig))
	}

	pub, compressed, err := ecdsa.RecoverCompact(sig, MessageHash(message))
	if err != nil {
		return false, fmt.Errorf("recover public key: %w", err)
	}

	return bytes.Equal(Hash160(serializePubKey(pub, compressed)), pubKeyHash), nil
}

// Sign produces a base64 compact signature over message.
func Sign(key *secp256k1.PrivateKey, message string, compressed bool) string {
	sig := ecdsa.SignCompact(key, MessageHash(message), compressed)
	return base64.StdEncoding.EncodeToString(sig)
}
