package state

import "fmt"

// Shard is one GOP-aligned sub-range of a SegmentationPlan, bound to the
// config interval that produced it (§3 SegmentationPlan, §4.8).
type Shard struct {
	ID                   string // "{first}_{last}"
	FirstFrame           int
	LastFrame            int
	EncoderTemplate      []string
	FrameServerTemplate  string
}

// NewShardID formats the canonical "{first}_{last}" shard id.
func NewShardID(first, last int) string { return fmt.Sprintf("%d_%d", first, last) }

// SegmentationPlan is the ordered, contiguous, non-overlapping shard list
// covering [First, Last] built by segment.BuildPlan (§3).
type SegmentationPlan struct {
	First  int
	Last   int
	Shards []Shard
}

// Validate checks the §8 property 3 invariant: shards cover [First, Last]
// exactly, pairwise disjoint, sorted ascending.
func (p *SegmentationPlan) Validate() error {
	if len(p.Shards) == 0 {
		return fmt.Errorf("segmentation plan has no shards")
	}
	if p.Shards[0].FirstFrame != p.First {
		return fmt.Errorf("segmentation plan: first shard does not start at %d", p.First)
	}
	for i, s := range p.Shards {
		if s.FirstFrame > s.LastFrame {
			return fmt.Errorf("shard %s: first > last", s.ID)
		}
		if i > 0 {
			prev := p.Shards[i-1]
			if s.FirstFrame != prev.LastFrame+1 {
				return fmt.Errorf("shard %s: does not immediately follow %s", s.ID, prev.ID)
			}
		}
	}
	if last := p.Shards[len(p.Shards)-1].LastFrame; last != p.Last {
		return fmt.Errorf("segmentation plan: last shard ends at %d, want %d", last, p.Last)
	}
	return nil
}

// ShardStatus is one entry of the durable status map (§3, §6 persisted
// state schema), held in memory. The on-disk schema splits Done and
// OutputPath into two parallel maps keyed by shard id (see
// internal/segment for the wire encoding) — that split is the legacy
// format's shape, reproduced for forward compatibility with existing
// status files.
type ShardStatus struct {
	Done       bool
	OutputPath string
}
