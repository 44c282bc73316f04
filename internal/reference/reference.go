// Package reference implements the payment correlation codes that link
// inbound bank transfers back to reservations.  Guests put the code in the
// transfer memo; the reconciliation engine extracts it and matches the
// reservation that owns it.
package reference

import (
    "crypto/sha256"
    "encoding/base32"
    "regexp"
    "strconv"
)

// Prefix is the literal prefix of every correlation code.
const Prefix = "RPA"

// codeLen is the number of characters after the dash.
const codeLen = 5

var codePattern = regexp.MustCompile(Prefix + `-[A-Z0-9]{` + strconv.Itoa(codeLen) + `}`)

// Generate derives the correlation code for a reservation id.  The code is a
// pure function of the id — no time, no randomness — so concurrent callers
// assigning a code to the same reservation always converge on the same
// value.  Format: RPA-XXXXX with five uppercase base32 characters taken from
// a SHA-256 of the decimal id.
func Generate(reservationID uint64) string {
    sum := sha256.Sum256([]byte(strconv.FormatUint(reservationID, 10)))
    enc := base32.StdEncoding.EncodeToString(sum[:])
    return Prefix + "-" + enc[:codeLen]
}

// Extract scans a free-text memo or transfer reference for a correlation
// code.  The code may appear anywhere in the string; the first well-formed
// occurrence wins.  The second return value is false when no code is
// present.
func Extract(memo string) (string, bool) {
    code := codePattern.FindString(memo)
    return code, code != ""
}
