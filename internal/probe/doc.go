// Package probe implements C2 MediaProbe: it invokes an external media
// inspection tool, parses the structured output into the state.TrackInfo
// model, and applies the normalization and trust-policy rules that
// reconcile the looser vocabulary a prober reports with the encoder's
// vocabulary (§4.2).
package probe
