package wise

import "testing"

func TestVerifySignatureRoundTrip(t *testing.T) {
    body := []byte(`{"event_type":"balances#credit","data":{"amount":500}}`)
    secret := "test-secret"

    sig := Sign(body, secret)
    if !VerifySignature(body, sig, secret) {
        t.Fatal("signature over exact body bytes did not verify")
    }
}

func TestVerifySignatureRejectsMutations(t *testing.T) {
    body := []byte(`{"event_type":"balances#credit"}`)
    secret := "test-secret"
    sig := Sign(body, secret)

    // Flip a single bit in the body.
    mutated := append([]byte(nil), body...)
    mutated[0] ^= 0x01
    if VerifySignature(mutated, sig, secret) {
        t.Error("mutated body verified")
    }

    // Different key ordering means different bytes, which must fail even
    // though the JSON is semantically identical.
    reordered := []byte(`{ "event_type":"balances#credit"}`)
    if VerifySignature(reordered, sig, secret) {
        t.Error("re-serialized body verified")
    }

    // Flip a bit in the signature.
    badSig := []byte(sig)
    if badSig[0] == '0' {
        badSig[0] = '1'
    } else {
        badSig[0] = '0'
    }
    if VerifySignature(body, string(badSig), secret) {
        t.Error("corrupted signature verified")
    }

    if VerifySignature(body, sig, "other-secret") {
        t.Error("wrong secret verified")
    }
}

func TestVerifySignatureMalformedInputs(t *testing.T) {
    body := []byte(`{}`)
    secret := "test-secret"

    tests := []struct {
        name string
        sig  string
        sec  string
    }{
        {"empty signature", "", secret},
        {"empty secret", Sign(body, secret), ""},
        {"non-hex signature", "not-hex-at-all!!", secret},
        {"odd-length hex", "abc", secret},
        {"truncated hex", "abcd", secret},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            if VerifySignature(body, tt.sig, tt.sec) {
                t.Errorf("VerifySignature accepted %s", tt.name)
            }
        })
    }
}
