// Package segment implements the §4.8 SegmentedEncoder (C8): it splits a
// long video encode into GOP-aligned shards, drives one videoencode.Encoder
// run per shard, persists per-shard status so a crashed run resumes without
// re-encoding finished shards, and stitches the finished shards into one
// contiguous elementary stream.
//
// Grounded on five82-drapto's chunked-encode shape
// (other_examples/.../internal-processing-chunked.go.go): plan, resume from
// a durable status map, encode shards sequentially, stitch. The on-disk
// status schema (two parallel maps keyed by shard id) is §6's persisted
// state contract, reproduced here rather than drapto's own schema.
package segment
