// Package ir provides the identity and canonical-encoding layer for syncmodel.
//
// This package contains leaf types only. Every other internal package imports
// ir; ir imports nothing internal.
//
// Key design constraints:
//   - Thread and heap identities are plain integers supplied by the host
//   - NO float types anywhere - digests must be byte-stable
//   - Structural identity is computed from RFC 8785 canonical JSON, never from
//     Go's map iteration order or pointer identity
package ir
