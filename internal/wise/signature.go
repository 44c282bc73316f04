package wise

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/hex"
)

// SignatureHeader is the HTTP header carrying the hex-encoded HMAC-SHA256 of
// the raw webhook body.
const SignatureHeader = "X-Signature-SHA256"

// Sign computes the hex-encoded HMAC-SHA256 of body with the shared secret.
// It exists so that delivery simulators and tests produce signatures exactly
// the way the provider does.
func Sign(body []byte, secret string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write(body)
    return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signatureHex is a valid HMAC-SHA256 of the
// raw request body under the shared secret.  The comparison is constant
// time.  Malformed hex, an empty secret or an empty signature all verify as
// false; this function never returns an error and never panics, so callers
// can treat any failure uniformly as "not from the provider".
//
// Verification runs over the exact bytes received on the wire, captured
// before any JSON parsing.  Signing a re-serialized payload is not
// equivalent: key order and whitespace may differ from what the provider
// signed.
func VerifySignature(body []byte, signatureHex, secret string) bool {
    if secret == "" || signatureHex == "" {
        return false
    }
    provided, err := hex.DecodeString(signatureHex)
    if err != nil {
        return false
    }
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write(body)
    return hmac.Equal(mac.Sum(nil), provided)
}
