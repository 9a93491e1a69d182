// internal/form/csrf.go
//
// Cadastro – Forms subsystem: stateless CSRF tokens with an age window.
//
// Context
//   The renderer embeds a hidden `csrf_token` input.  On POST the token must
//   verify before any field is looked at.  Tokens are stateless:
//
//      base64url( nonce[16] | issuedUnixMicro[8] | HMAC_SHA256(key, nonce|ts) )
//
//   The issue time doubles as the render timestamp, so Verify also rejects
//   forms posted faster than MinAge (scripted submissions) or later than
//   MaxAge (stale pages).
//
//------------------------------------------------------------------------------

package form

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

// CSRFField is the hidden input name carrying the token.
const CSRFField = "csrf_token"

const tokenLen = 16 + 8 + sha256.Size

// Token verification failures.  Messages are user-facing.
var (
	ErrTokenInvalid = errors.New("Token de segurança inválido.  Recarregue a página e tente novamente.")
	ErrTooFast      = errors.New("Formulário enviado rápido demais.  Preencha os campos manualmente.")
	ErrExpired      = errors.New("Formulário expirado.  Recarregue a página e envie novamente.")
)

// Guard issues and verifies tokens.  Safe for concurrent use.
type Guard struct {
	key    []byte
	MinAge time.Duration
	MaxAge time.Duration
	now    func() time.Time
}

// NewGuard returns a Guard keyed by key.  A key shorter than 32 bytes is
// replaced by a random one, which means tokens do not survive a restart.
func NewGuard(key []byte, minAge, maxAge time.Duration) *Guard {
	if len(key) < 32 {
		key = make([]byte, 32)
		_, _ = rand.Read(key)
	}
	return &Guard{key: key, MinAge: minAge, MaxAge: maxAge, now: time.Now}
}

// Issue returns a fresh token.
func (g *Guard) Issue() (string, error) {
	buf := make([]byte, tokenLen)
	if _, err := rand.Read(buf[:16]); err != nil {
		return "", err
	}
	binary.BigEndian.PutUint64(buf[16:24], uint64(g.now().UnixMicro()))
	copy(buf[24:], g.sign(buf[:24]))
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify checks signature and age.
func (g *Guard) Verify(tok string) error {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenLen {
		return ErrTokenInvalid
	}
	if !hmac.Equal(raw[24:], g.sign(raw[:24])) {
		return ErrTokenInvalid
	}

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(raw[16:24])))
	age := g.now().Sub(issued)
	switch {
	case age < -time.Minute:
		return ErrTokenInvalid // clock skew or forged future stamp
	case age < g.MinAge:
		return ErrTooFast
	case g.MaxAge > 0 && age > g.MaxAge:
		return ErrExpired
	}
	return nil
}

func (g *Guard) sign(b []byte) []byte {
	mac := hmac.New(sha256.New, g.key)
	mac.Write(b)
	return mac.Sum(nil)
}
