// Package storage defines persistence contracts for the finance service.
//
// The service persists a single opaque snapshot per key. Encoding lives in
// the snapshot package; backends only move bytes.
package storage
