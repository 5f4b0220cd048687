package paywall

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	client := &RazorpayClient{KeyID: "rzp_test", KeySecret: "top-secret"}

	orderID := "order_123"
	paymentID := "pay_456"

	mac := hmac.New(sha256.New, []byte("top-secret"))
	mac.Write([]byte(orderID + "|" + paymentID))
	validSig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifySignature(orderID, paymentID, validSig))
	assert.False(t, client.VerifySignature(orderID, paymentID, "deadbeef"))
	assert.False(t, client.VerifySignature("order_999", paymentID, validSig))

	wrongSecret := &RazorpayClient{KeyID: "rzp_test", KeySecret: "other-secret"}
	assert.False(t, wrongSecret.VerifySignature(orderID, paymentID, validSig))
}
