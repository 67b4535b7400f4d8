package signature

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	vectorPrivKey   = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	vectorAddress   = "1F3sAm6ZtwLAUnj7d38pGFxtP3RVEvtsbV"
	vectorMessage   = "This is an example of a signed message."
	vectorSignature = "H9L5yLFjti0QTHhPyFrZCT1V/MMnBtXKmoiKDZ78NDBjERki6ZTQZdSMCtkgoNmp17By9ItJr8o7ChX0XxY91nk="
)

func vectorKey(t *testing.T) *secp256k1.PrivateKey {
	t.Helper()
	raw, err := hex.DecodeString(vectorPrivKey)
	require.NoError(t, err)
	return secp256k1.PrivKeyFromBytes(raw)
}

func TestMessageHash(t *testing.T) {
	assert.Equal(t,
		"d0e5595ac689a1df9f0b13443e0efd876eeb762d50a05f7179b1506bfccfeec5",
		hex.EncodeToString(MessageHash(vectorMessage)))
}

func TestAddressFromPubKey(t *testing.T) {
	key := vectorKey(t)
	assert.Equal(t, vectorAddress, AddressFromPubKey(key.PubKey(), true, MainNetPubKeyHash))
	assert.Equal(t, "muZpTpBYhxmRFuCjLc7C6BBDF32C8XVJUi", AddressFromPubKey(key.PubKey(), true, TestNetPubKeyHash))
}

func TestVerifyKnownVector(t *testing.T) {
	ok, err := Verify(vectorAddress, vectorMessage, vectorSignature)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Verify(vectorAddress, vectorMessage+"!", vectorSignature)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignThenVerify(t *testing.T) {
	key := vectorKey(t)
	message := vectorAddress + ":1539000000:starRegistry"

	for _, compressed := range []bool{true, false} {
		address := AddressFromPubKey(key.PubKey(), compressed, MainNetPubKeyHash)
		sig := Sign(key, message, compressed)

		ok, err := NewVerifier().Verify(address, message, sig)
		require.NoError(t, err)
		assert.True(t, ok, "compressed=%v", compressed)
	}
}

func TestVerifyRejectsOtherKey(t *testing.T) {
	other, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	sig := Sign(other, vectorMessage, true)
	ok, err := Verify(vectorAddress, vectorMessage, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyTestnetAddress(t *testing.T) {
	key := vectorKey(t)
	address := AddressFromPubKey(key.PubKey(), true, TestNetPubKeyHash)

	ok, err := Verify(address, vectorMessage, vectorSignature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyMalformedInput(t *testing.T) {
	tests := []struct {
		name      string
		address   string
		signature string
	}{
		{name: "address not base58", address: "0OIl0OIl0OIl", signature: vectorSignature},
		{name: "address bad checksum", address: "1F3sAm6ZtwLAUnj7d38pGFxtP3RVEvtsbW", signature: vectorSignature},
		{name: "signature not base64", address: vectorAddress, signature: "***"},
		{name: "signature too short", address: vectorAddress, signature: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "signature bad header", address: vectorAddress, signature: base64.StdEncoding.EncodeToString(append([]byte{1}, make([]byte, 64)...))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify(tt.address, vectorMessage, tt.signature)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMessageHashLongMessage(t *testing.T) {
	// lengths above 252 use the three byte varint form
	long := strings.Repeat("a", 300)
	key := vectorKey(t)
	sig := Sign(key, long, true)

	ok, err := Verify(vectorAddress, long, sig)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, MessageHash(long), MessageHash(long[:299]))
}
