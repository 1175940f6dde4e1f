package title

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/coilpress/muxctl/internal/extract"
	"github.com/coilpress/muxctl/internal/probe"
	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/videoencode"
)

// videoIOResult is VIDEO_IO's return value: the final video TrackFile
// plus, when the source was VFR, the extracted timecode file MUX needs
// to carry timestamps through the output container.
type videoIOResult struct {
	Track        state.TrackFile
	TimecodePath string
}

// videoIO implements §4.9 VIDEO_IO and the §5 barrier: source I/O (copy
// or extract) happens first and, the moment it finishes, ioComplete is
// closed so AUDIO may start its own demux concurrently with any
// subsequent encode. Encoding (when configured) happens after the
// barrier fires, never before.
func (p *Pipeline) videoIO(ctx context.Context, ex *extract.Extractor, c *probe.ContainerInfo, req Request, rm *cleanupSet, ioComplete chan struct{}) (result videoIOResult, err error) {
	closeBarrier := func() {
		select {
		case <-ioComplete:
		default:
			close(ioComplete)
		}
	}
	defer closeBarrier()

	vo := req.Options.Video
	track := c.PrimaryVideo()
	if track == nil {
		return videoIOResult{}, fmt.Errorf("video_io: container has no video track")
	}

	if vo.ProcessOption == state.ProcessCopy {
		if req.Options.PackageFormat == state.PackageMKV {
			// Reference in place: no elementary-stream extraction needed.
			tf, err := state.NewTrackFile(*track, c.Path)
			return videoIOResult{Track: tf}, err
		}
		tf, err := ex.ExtractVideo(ctx, c)
		if err != nil {
			return videoIOResult{}, fmt.Errorf("video_io: copy extract: %w", err)
		}
		rm.add(tf.Filepath)
		return videoIOResult{Track: tf}, nil
	}

	// transcode: extract the elementary stream first (source I/O, counts
	// toward the barrier), then encode after io_complete has fired.
	source, err := ex.ExtractVideo(ctx, c)
	if err != nil {
		return videoIOResult{}, fmt.Errorf("video_io: transcode extract: %w", err)
	}
	rm.add(source.Filepath)

	var timecodePath string
	if track.Video != nil && track.Video.FrameRateMode == state.FrameRateVFR {
		timecodePath, err = ex.ExtractVideoTimecodes(ctx, c)
		if err != nil {
			return videoIOResult{}, fmt.Errorf("video_io: extract timecodes: %w", err)
		}
		rm.add(timecodePath)
	}

	closeBarrier()

	outPath := filepath.Join(req.CacheDir, "video_encoded"+state.TrackExtensionFor(track.Format))
	encReq := videoencode.Request{
		Method:                    vo.Method,
		InputPath:                 source.Filepath,
		OutputPath:                outPath,
		EncoderArgvTemplate:       vo.EncoderTemplate,
		FrameServerExe:            vo.FrameServerExe,
		FrameServerScriptTemplate: vo.FrameServerTemplate,
		FrameServerScriptPath:     filepath.Join(req.CacheDir, "video_frameserver.script"),
		Source:                    *track.Video,
		OutputFrameRateMode:       vo.OutputFrameRateMode,
		OutputFPS:                 vo.OutputFPS,
		OutputSAR:                 vo.OutputSAR,
		OutputDynamicRangeMode:    vo.OutputDynamicRangeMode,
		OutputFullRange:           vo.OutputFullRange,
		HDR:                       track.Video.HDR,
		TimecodePath:              timecodePath,
		FirstFrameIndex:           -1,
		LastFrameIndex:            -1,
	}
	segmented := len(vo.SegmentedTranscodeConfigList) > 0
	if vo.Method != state.MethodDirectNVENC && !segmented {
		rm.add(encReq.FrameServerScriptPath)
	}

	var encResult videoencode.Result
	if segmented {
		encResult, err = p.segmentedEncode(ctx, req, vo, track, encReq)
	} else {
		encResult, err = p.VideoEncoder.Encode(ctx, encReq, p.progressHandler(req.ContainerTitle))
	}
	if err != nil {
		return videoIOResult{}, fmt.Errorf("video_io: encode: %w", err)
	}
	rm.add(encResult.OutputPath)

	tf, err := state.NewTrackFile(*track, encResult.OutputPath)
	return videoIOResult{Track: tf, TimecodePath: timecodePath}, err
}
