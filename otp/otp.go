// Package otp computes one-time passwords as described in RFC 2289
// (S/KEY compatible). Passphrases are rendered either as six dictionary
// words or in hexadecimal.
package otp

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/md4"
)

// Supported hash algorithms and output encodings.
const (
	HashMD4         = "md4"
	HashMD5         = "md5"
	HashSHA1        = "sha1"
	EncodingHex     = "hex"
	EncodingSixWord = "sixword"
)

type foldFunc func(sum []byte) [8]byte

// fold xors the digest down to 64 bits.
func fold(sum []byte) [8]byte {
	var r [8]byte
	for i := 0; i < 8; i++ {
		r[i] = sum[i] ^ sum[i+8]
	}
	return r
}

// foldSHA1 follows the RFC 2289 reference code: the five 32-bit words are
// folded in host order, then emitted little endian.
func foldSHA1(sum []byte) [8]byte {
	var w [5]uint32
	for i := range w {
		w[i] = binary.BigEndian.Uint32(sum[4*i:])
	}
	w[0] ^= w[2]
	w[1] ^= w[3]
	w[0] ^= w[4]
	var r [8]byte
	binary.LittleEndian.PutUint32(r[0:], w[0])
	binary.LittleEndian.PutUint32(r[4:], w[1])
	return r
}

func algorithm(name string) (func() hash.Hash, foldFunc, error) {
	switch strings.ToLower(name) {
	case HashMD4:
		return md4.New, fold, nil
	case HashMD5:
		return md5.New, fold, nil
	case HashSHA1:
		return sha1.New, foldSHA1, nil
	}
	return nil, nil, fmt.Errorf("otp: unsupported hash: '%s'", name)
}

func encode(key [8]byte, encoding string) (string, error) {
	switch strings.ToLower(encoding) {
	case EncodingHex:
		return fmt.Sprintf("%02X%02X %02X%02X %02X%02X %02X%02X",
			key[0], key[1], key[2], key[3], key[4], key[5], key[6], key[7]), nil
	case EncodingSixWord:
		return sixWord(key), nil
	}
	return "", fmt.Errorf("otp: unsupported encoding: '%s'", encoding)
}

// sixWord appends the 2-bit checksum to the 64-bit key and maps each of
// the six 11-bit groups to a dictionary word.
func sixWord(key [8]byte) string {
	v := binary.BigEndian.Uint64(key[:])

	var parity uint64
	for i := uint(0); i < 64; i += 2 {
		parity += (v >> i) & 3
	}

	// 66 bits: key in hi:lo, checksum in the last two bits of lo
	hi := v >> 62
	lo := v<<2 | parity&3

	words := make([]string, 6)
	for i := range words {
		shift := uint(55 - 11*i)
		idx := lo >> shift
		if shift > 0 {
			idx |= hi << (64 - shift)
		}
		words[i] = sixWords[idx&0x7ff]
	}

	return strings.Join(words, " ")
}

func step(newHash func() hash.Hash, f foldFunc, in []byte) [8]byte {
	h := newHash()
	h.Write(in)
	return f(h.Sum(nil))
}

// Generate computes count passphrases, for sequence, sequence-1, and so on.
// The seed is case insensitive.
func Generate(password, seed string, sequence, count int, hashName, encoding string) ([]string, error) {
	if sequence < 0 {
		return nil, fmt.Errorf("otp: negative sequence: %d", sequence)
	}
	if count < 1 || count > sequence+1 {
		return nil, fmt.Errorf("otp: bad count %d for sequence %d", count, sequence)
	}
	if seed == "" {
		return nil, fmt.Errorf("otp: empty seed")
	}

	newHash, f, algErr := algorithm(hashName)
	if algErr != nil {
		return nil, algErr
	}

	// hash chain: keys[i] is the key after i steps
	keys := make([][8]byte, sequence+1)
	keys[0] = step(newHash, f, []byte(strings.ToLower(seed)+password))
	for i := 1; i <= sequence; i++ {
		keys[i] = step(newHash, f, keys[i-1][:])
	}

	list := make([]string, 0, count)
	for i := 0; i < count; i++ {
		p, encErr := encode(keys[sequence-i], encoding)
		if encErr != nil {
			return nil, encErr
		}
		list = append(list, p)
	}

	return list, nil
}

// Passphrase computes the passphrase for sequence. count is passed to
// Generate and only the first passphrase is returned.
func Passphrase(password, seed string, sequence, count int, hashName, encoding string) (string, error) {
	list, err := Generate(password, seed, sequence, count, hashName, encoding)
	if err != nil {
		return "", err
	}
	return list[0], nil
}
