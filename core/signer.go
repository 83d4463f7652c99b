package core

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
)

// SecurityCredential encrypts the initiator secret with the gateway's
// public key and base64-encodes the result. Recomputed per call; callers
// may rotate configuration between calls.
func SecurityCredential(initiatorPassword string, keyMaterial []byte) (string, error) {
	if strings.TrimSpace(initiatorPassword) == "" {
		return "", badInputError(ClientErrorBadInput, "core: initiator password is required")
	}
	publicKey, err := parseRSAPublicKey(keyMaterial)
	if err != nil {
		return "", err
	}
	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, publicKey, []byte(initiatorPassword))
	if err != nil {
		return "", encryptionError("core: encrypt initiator password", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// STKPassword derives the time-boxed password for STK push requests:
// base64(shortcode + passkey + timestamp).
func STKPassword(shortcode, passkey, timestamp string) (string, error) {
	if strings.TrimSpace(shortcode) == "" {
		return "", badInputError(ClientErrorBadInput, "core: shortcode is required to derive the stk password")
	}
	if strings.TrimSpace(passkey) == "" {
		return "", badInputError(ClientErrorBadInput, "core: passkey is required to derive the stk password")
	}
	if strings.TrimSpace(timestamp) == "" {
		return "", badInputError(ClientErrorBadInput, "core: timestamp is required to derive the stk password")
	}
	return base64.StdEncoding.EncodeToString([]byte(shortcode + passkey + timestamp)), nil
}

// parseRSAPublicKey accepts the gateway certificate (the usual
// distribution format) or a bare PKIX public key, PEM-encoded either way.
func parseRSAPublicKey(material []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(material)
	if block == nil {
		return nil, keyLoadError("core: key material is not pem encoded", nil)
	}
	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, keyLoadError("core: parse gateway certificate", err)
		}
		publicKey, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, keyLoadError("core: gateway certificate does not carry an rsa public key", nil)
		}
		return publicKey, nil
	case "PUBLIC KEY":
		parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, keyLoadError("core: parse public key", err)
		}
		publicKey, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, keyLoadError("core: key material is not an rsa public key", nil)
		}
		return publicKey, nil
	}
	return nil, keyLoadError("core: unsupported pem block type "+block.Type, nil)
}
