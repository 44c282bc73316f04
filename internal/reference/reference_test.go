package reference

import (
    "regexp"
    "testing"
)

var codeRe = regexp.MustCompile(`^RPA-[A-Z0-9]{5}$`)

func TestGenerateFormat(t *testing.T) {
    for _, id := range []uint64{1, 2, 42, 999999, 18446744073709551615} {
        code := Generate(id)
        if !codeRe.MatchString(code) {
            t.Errorf("Generate(%d) = %q, want RPA- plus five uppercase alphanumerics", id, code)
        }
    }
}

func TestGenerateDeterministic(t *testing.T) {
    for _, id := range []uint64{1, 7, 1234} {
        a, b := Generate(id), Generate(id)
        if a != b {
            t.Errorf("Generate(%d) not deterministic: %q vs %q", id, a, b)
        }
    }
    if Generate(1) == Generate(2) {
        t.Error("Generate(1) and Generate(2) collide")
    }
}

func TestExtract(t *testing.T) {
    code := Generate(10)

    tests := []struct {
        name string
        memo string
        want string
        ok   bool
    }{
        {"bare code", code, code, true},
        {"embedded in transfer memo", "Transfer " + code + " ref", code, true},
        {"surrounded by text", "payment for trip, code " + code + ", thanks", code, true},
        {"fixed code", "wire RPA-AB12C done", "RPA-AB12C", true},
        {"no code", "no code here", "", false},
        {"empty memo", "", "", false},
        {"wrong prefix", "XYZ-AB12C", "", false},
        {"too short", "RPA-AB1", "", false},
        {"lowercase not matched", "rpa-ab12c", "", false},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            got, ok := Extract(tt.memo)
            if ok != tt.ok || got != tt.want {
                t.Errorf("Extract(%q) = (%q, %v), want (%q, %v)", tt.memo, got, ok, tt.want, tt.ok)
            }
        })
    }
}

func TestExtractFindsFirstOfMultiple(t *testing.T) {
    memo := "RPA-AAAAA then RPA-BBBBB"
    got, ok := Extract(memo)
    if !ok || got != "RPA-AAAAA" {
        t.Errorf("Extract(%q) = (%q, %v), want first code", memo, got, ok)
    }
}
