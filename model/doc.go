// Package model defines the wire-level data types shared across binrange:
// card ranges, PRes message envelopes, and their validation rules.
//
// Range bounds travel as JSON strings on the wire (EMVCo PRes convention)
// but are plain int64 values in memory. Validation happens exactly once,
// at construction or decode time; everything downstream trusts a CardRange
// it receives.
package model
