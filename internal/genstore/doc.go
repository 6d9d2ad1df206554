// Package genstore persists an append-only audit trail of every
// generative capability call: one JSON record per call plus any media
// blobs it produced, sharded into one directory per calendar day.
package genstore
