// Package mux implements C5 Muxer: combining extracted or copied track
// files into a single MKV or MP4 output, plus the add_valid_mark rename
// convention that marks a finished output as safe to reuse across runs.
package mux
