package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const MinSecretLength = 32

var ErrInvalidCookie = errors.New("invalid session cookie")

// Data is what a session knows about the browser it belongs to.
type Data struct {
	// ID is set when the session lives in a server side store.
	ID        string    `json:"-"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type cookieClaims struct {
	SID         string `json:"sid,omitempty"`
	SealedToken string `json:"tok,omitempty"`
	jwt.RegisteredClaims
}

// Codec turns session data into a signed cookie value and back. The access
// token, when carried in the cookie, is encrypted as well as signed.
type Codec struct {
	signKey []byte
	aead    cipher.AEAD
	now     func() time.Time
}

func NewCodec(secret string) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d characters", MinSecretLength)
	}
	signKey, err := deriveKey(secret, "groombook session signing")
	if err != nil {
		return nil, err
	}
	sealKey, err := deriveKey(secret, "groombook session sealing")
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return nil, err
	}
	return &Codec{signKey: signKey, aead: aead, now: time.Now}, nil
}

func deriveKey(secret, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return key, nil
}

func (c *Codec) Encode(d Data) (string, error) {
	claims := cookieClaims{
		SID: d.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(d.ExpiresAt),
		},
	}
	if d.Token != "" {
		sealed, err := c.seal(d.Token)
		if err != nil {
			return "", err
		}
		claims.SealedToken = sealed
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signKey)
}

func (c *Codec) Decode(raw string) (Data, error) {
	var claims cookieClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.signKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Data{}, ErrInvalidCookie
	}
	d := Data{ID: claims.SID, ExpiresAt: claims.ExpiresAt.Time}
	if claims.SealedToken != "" {
		if d.Token, err = c.open(claims.SealedToken); err != nil {
			return Data{}, ErrInvalidCookie
		}
	}
	if d.ID == "" && d.Token == "" {
		return Data{}, ErrInvalidCookie
	}
	return d, nil
}

func (c *Codec) seal(plain string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plain)+c.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(c.aead.Seal(nonce, nonce, []byte(plain), nil)), nil
}

func (c *Codec) open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", err
	}
	if len(raw) < c.aead.NonceSize() {
		return "", ErrInvalidCookie
	}
	nonce, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
