package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainState     = "propnet/state/v1"
	DomainJointMove = "propnet/jointmove/v1"
	DomainCircuit   = "propnet/circuit/v1"
)

// HashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateHash computes the content-addressed ID of a state.
// Equal states hash equally regardless of how their facts were ordered.
func StateHash(s ExternalState) string {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		// Facts are strings; canonical marshaling of a string slice cannot fail.
		panic(fmt.Sprintf("StateHash: %v", err))
	}
	return HashWithDomain(DomainState, canonical)
}

// JointMoveHash computes the content-addressed ID of a joint move.
func JointMoveHash(m JointMove) string {
	canonical, err := MarshalCanonical(m)
	if err != nil {
		panic(fmt.Sprintf("JointMoveHash: %v", err))
	}
	return HashWithDomain(DomainJointMove, canonical)
}
