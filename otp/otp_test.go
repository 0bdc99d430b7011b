package otp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 2289 appendix C
func TestRFC2289Hex(t *testing.T) {
	table := []struct {
		hash     string
		password string
		seed     string
		sequence int
		want     string
	}{
		{HashMD4, "This is a test.", "TeSt", 0, "D185 4218 EBBB 0B51"},
		{HashMD4, "This is a test.", "TeSt", 1, "6347 3EF0 1CD0 B444"},
		{HashMD4, "This is a test.", "TeSt", 99, "C5E6 1277 6E6C 237A"},
		{HashMD5, "This is a test.", "TeSt", 0, "9E87 6134 D904 99DD"},
		{HashMD5, "This is a test.", "TeSt", 1, "7965 E054 36F5 029F"},
		{HashMD5, "This is a test.", "TeSt", 99, "50FE 1962 C496 5880"},
		{HashSHA1, "This is a test.", "TeSt", 0, "BB9E 6AE1 979D 8FF4"},
		{HashSHA1, "This is a test.", "TeSt", 1, "63D9 3663 9734 385B"},
		{HashSHA1, "This is a test.", "TeSt", 99, "87FE C776 8B73 CCF9"},
	}

	for _, c := range table {
		got, err := Passphrase(c.password, c.seed, c.sequence, 1, c.hash, EncodingHex)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "hash=%s seq=%d", c.hash, c.sequence)
	}
}

func TestRFC2289SixWord(t *testing.T) {
	table := []struct {
		hash     string
		sequence int
		want     string
	}{
		{HashMD4, 0, "ROME MUG FRED SCAN LIVE LACE"},
		{HashMD4, 1, "CARD SAD MINI RYE COL KIN"},
		{HashMD4, 99, "NOTE OUT IBIS SINK NAVE MODE"},
		{HashMD5, 0, "INCH SEA ANNE LONG AHEM TOUR"},
		{HashMD5, 1, "EASE OIL FUM CURE AWRY AVIS"},
		{HashMD5, 99, "BAIL TUFT BITS GANG CHEF THY"},
		{HashSHA1, 0, "MILT VARY MAST OK SEES WENT"},
		{HashSHA1, 1, "CART OTTO HIVE ODE VAT NUT"},
		{HashSHA1, 99, "GAFF WAIT SKID GIG SKY EYED"},
	}

	for _, c := range table {
		got, err := Passphrase("This is a test.", "TeSt", c.sequence, 1, c.hash, EncodingSixWord)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "hash=%s seq=%d", c.hash, c.sequence)
	}
}

func TestSixWordDictionary(t *testing.T) {
	assert.Equal(t, "A", sixWords[0])
	assert.Equal(t, "ABED", sixWords[571])
	assert.Equal(t, "YOKE", sixWords[2047])

	seen := map[string]bool{}
	for _, w := range sixWords {
		assert.False(t, seen[w], "duplicate word %s", w)
		seen[w] = true
	}
}

func TestGenerateCountDescends(t *testing.T) {
	list, err := Generate("This is a test.", "TeSt", 1, 2, HashMD5, EncodingHex)
	require.NoError(t, err)
	assert.Equal(t, []string{"7965 E054 36F5 029F", "9E87 6134 D904 99DD"}, list)
}

func TestSeedIsCaseInsensitive(t *testing.T) {
	a, errA := Passphrase("secret", "AbCdE", 5, 1, HashMD4, EncodingHex)
	require.NoError(t, errA)
	b, errB := Passphrase("secret", "abcde", 5, 1, HashMD4, EncodingHex)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
}

func TestSHA1Chain(t *testing.T) {
	p0, err0 := Passphrase("secret", "seed", 0, 1, HashSHA1, EncodingHex)
	require.NoError(t, err0)
	p1, err1 := Passphrase("secret", "seed", 1, 1, HashSHA1, EncodingHex)
	require.NoError(t, err1)
	assert.NotEqual(t, p0, p1)
	assert.Len(t, p0, len("0000 0000 0000 0000"))
}

func TestBadInput(t *testing.T) {
	_, err := Passphrase("secret", "seed", 5, 1, "md2", EncodingHex)
	assert.Error(t, err, "unsupported hash")

	_, err = Passphrase("secret", "seed", 5, 1, HashMD4, "base64")
	assert.Error(t, err, "unsupported encoding")

	_, err = Passphrase("secret", "", 5, 1, HashMD4, EncodingHex)
	assert.Error(t, err, "empty seed")

	_, err = Generate("secret", "seed", 1, 3, HashMD4, EncodingHex)
	assert.Error(t, err, "count past sequence zero")

	_, err = Generate("secret", "seed", -1, 1, HashMD4, EncodingHex)
	assert.Error(t, err, "negative sequence")
}
