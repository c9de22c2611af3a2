// Package payment confirms gateway payments and creates gateway orders.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var ErrGateNotConfigured = errors.New("payment gateway secret not configured")

// Gate recomputes the gateway's signature with the server-held secret. It
// never trusts a client-supplied signature on its own.
type Gate struct {
	secret []byte
}

func NewGate(secret string) *Gate {
	return &Gate{secret: []byte(secret)}
}

// Sign returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches the recomputed digest. The
// comparison takes the same time regardless of where the strings differ.
func (g *Gate) Verify(orderID, paymentID, signature string) (bool, error) {
	if len(g.secret) == 0 {
		return false, ErrGateNotConfigured
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return false, nil
	}
	expected := Sign(string(g.secret), orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}
