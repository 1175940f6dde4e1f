// Package title implements the §4.9 TitlePipeline (C9): it drives one
// output title through NEW → PRE_MUX → (SUBS ∥ CHAPTERS ∥ ATTACH ∥
// VIDEO_IO) → AUDIO → MUX → CLEAN → DONE, fanning the middle stage out
// across five cooperating goroutines with a single cross-stream barrier
// between VIDEO_IO and AUDIO (§5).
//
// Grounded on the teacher's internal/pipeline/runner.go for the overall
// validate→probe→plan→execute cadence and its per-stage logging style,
// generalized from "one ffmpeg call per file" to "one state machine per
// title, fanning out across five components". The barrier itself has no
// teacher equivalent (the teacher runs everything inline in one
// goroutine); it is implemented with golang.org/x/sync/errgroup and a
// closed channel exactly as spec.md §5 describes, never a polled flag.
package title
