// Package signature verifies OpenPGP cleartext signatures on security.txt
// files.
package signature

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	pgperrors "github.com/ProtonMail/go-crypto/openpgp/errors"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"go.uber.org/zap"

	"github.com/khanhnv2901/securitytxt/internal/domain/securitytxt"
)

// CleartextHeader starts an OpenPGP cleartext signed message.
const CleartextHeader = "-----BEGIN PGP SIGNED MESSAGE-----"

var (
	// ErrInvalid means the signature is malformed or does not match.
	ErrInvalid = errors.New("signature invalid")
	// ErrUnavailable means signatures cannot be verified in this setup.
	ErrUnavailable = errors.New("signature verification unavailable")
)

// Provider verifies a signed document.
type Provider interface {
	Verify(contents string) (securitytxt.SignatureVerifyResult, error)
}

// IsCleartextHeader reports whether a trimmed line opens a signed message.
func IsCleartextHeader(line string) bool {
	return line == CleartextHeader
}

// OpenPGPVerifier checks signatures against a keyring. Signatures made by a
// key missing from the keyring are accepted, and the issuer key ID is used
// as the fingerprint.
type OpenPGPVerifier struct {
	keyring openpgp.EntityList
	logger  *zap.Logger
}

// NewOpenPGPVerifier creates a verifier for keyring, which may be empty.
func NewOpenPGPVerifier(keyring openpgp.EntityList, logger *zap.Logger) *OpenPGPVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenPGPVerifier{keyring: keyring, logger: logger}
}

// LoadKeyring reads an armored public keyring from path.
func LoadKeyring(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		return nil, fmt.Errorf("read keyring %s: %w", path, err)
	}
	return keyring, nil
}

// Verify checks the cleartext signature in contents.
func (v *OpenPGPVerifier) Verify(contents string) (securitytxt.SignatureVerifyResult, error) {
	block, _ := clearsign.Decode([]byte(contents))
	if block == nil || block.ArmoredSignature == nil {
		return securitytxt.SignatureVerifyResult{}, fmt.Errorf("%w: no cleartext signature block", ErrInvalid)
	}

	sig, err := io.ReadAll(block.ArmoredSignature.Body)
	if err != nil {
		return securitytxt.SignatureVerifyResult{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	pkt, err := packet.Read(bytes.NewReader(sig))
	if err != nil {
		return securitytxt.SignatureVerifyResult{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	s, ok := pkt.(*packet.Signature)
	if !ok {
		return securitytxt.SignatureVerifyResult{}, fmt.Errorf("%w: unexpected packet %T", ErrInvalid, pkt)
	}
	result := securitytxt.SignatureVerifyResult{DateTime: s.CreationTime}
	var issuer uint64
	if s.IssuerKeyId != nil {
		issuer = *s.IssuerKeyId
	}

	signer, err := openpgp.CheckDetachedSignature(v.keyring, bytes.NewReader(block.Bytes), bytes.NewReader(sig), nil)
	switch {
	case err == nil:
		result.KeyFingerprint = strings.ToUpper(hex.EncodeToString(signer.PrimaryKey.Fingerprint[:]))
	case errors.Is(err, pgperrors.ErrUnknownIssuer):
		v.logger.Debug("signing key not in keyring", zap.String("key_id", fmt.Sprintf("%016X", issuer)))
		result.KeyFingerprint = fmt.Sprintf("%016X", issuer)
	default:
		return securitytxt.SignatureVerifyResult{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return result, nil
}
