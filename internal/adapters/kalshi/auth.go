package kalshi

// auth.go: RSA-PSS request signing.
//
// Every request carries three headers. The signature covers
// timestamp_ms + METHOD + path, where path includes /trade-api/v2 and
// excludes the query string. PSS uses SHA-256 with a 32-byte salt.

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

const (
	headerKey       = "KALSHI-ACCESS-KEY"
	headerTimestamp = "KALSHI-ACCESS-TIMESTAMP"
	headerSignature = "KALSHI-ACCESS-SIGNATURE"
)

// LoadPrivateKey reads a PEM encoded RSA key (PKCS#1 or PKCS#8).
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("kalshi.LoadPrivateKey: read %q: %w", path, err)
	}
	key, err := ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("kalshi.LoadPrivateKey: %q: %w", path, err)
	}
	return key, nil
}

// ParsePrivateKey parses PEM bytes into an RSA key.
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return key, nil
}

// signRequest returns the base64 PSS signature of ts+method+path.
func signRequest(key *rsa.PrivateKey, ts, method, path string) (string, error) {
	digest := sha256.Sum256([]byte(ts + method + path))
	sig, err := rsa.SignPSS(rand.Reader, key, crypto.SHA256, digest[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
