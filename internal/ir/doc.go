// Package ir provides the value types shared by every layer of the
// propositional-network evaluator.
//
// This package contains value types only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - ExternalState and JointMove are immutable and comparable with ==, so
//     callers can use them directly as map keys
//   - All identifiers (facts, actions, roles) are NFC normalized with
//     whitespace collapsed, at construction time
//   - Content hashes use canonical JSON with domain separation
package ir
