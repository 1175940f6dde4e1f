// Package audiotranscode implements C6 AudioTranscoder: converting a
// demuxed audio track to Opus, AAC, or FLAC, or passing it through to
// another container via the generic transcoder.
package audiotranscode
