package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHS256RoundTrip(t *testing.T) {
	secret := []byte("test-secret-test-secret-test-secret")
	now := time.Now()
	token, err := SignHS256(NewClaims("42", "rex.owner", now, time.Hour), secret)
	require.NoError(t, err)

	parsed, err := ParseHS256(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "42", parsed.Subject)
	assert.Equal(t, "rex.owner", parsed.Username)
	assert.WithinDuration(t, now.Add(time.Hour), parsed.Expiry(), time.Second)

	_, err = ParseHS256(token, []byte("wrong-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseHS256RejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := SignHS256(NewClaims("1", "a", time.Now().Add(-2*time.Hour), time.Hour), secret)
	require.NoError(t, err)
	_, err = ParseHS256(token, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseHS256RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, NewClaims("1", "a", time.Now(), time.Hour)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseHS256(token, []byte("secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token, err := SignHS256(NewClaims("7", "bella", exp.Add(-30*time.Minute), 30*time.Minute), []byte("someone-elses-key"))
	require.NoError(t, err)

	claims, err := Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.True(t, exp.Equal(claims.Expiry()))

	_, err = Inspect("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	var none *Claims
	assert.True(t, none.Expiry().IsZero())
}
