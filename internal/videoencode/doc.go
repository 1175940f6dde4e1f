// Package videoencode implements C7 VideoEncoder: direct NVENC and
// frame-server-piped (x264/x265/NVENC) encoding, the output-FPS
// resolution table, color-range/matrix/SAR derivation, HDR10 flag
// construction, progress parsing, and anomalous-completion retry.
package videoencode
