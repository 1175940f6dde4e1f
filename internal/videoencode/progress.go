package videoencode

import (
	"regexp"
	"strconv"
)

// progressRe matches the x264/x265-style progress line:
// "123/4560 frames, 42.10 fps, 8123.4 kb/s, eta 0:02:13, 1.2MB, est. 3.4MB, qp 22.10"
var progressRe = regexp.MustCompile(
	`(\d+)/(\d+)\s+frames,\s+([\d.]+)\s+fps,\s+([\d.]+)\s+kb/s,\s+eta\s+(\S+),\s+(\S+),\s+est\.\s+(\S+),\s+qp\s+([\d.]+)`)

// parseProgress extracts encoded_frames/total, fps, kbit/s, ETA, size,
// est_size, and qp from one line of encoder stderr (§4.7).
func parseProgress(line string) (Progress, bool) {
	m := progressRe.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	encoded, _ := strconv.Atoi(m[1])
	total, _ := strconv.Atoi(m[2])
	fps, _ := strconv.ParseFloat(m[3], 64)
	kbps, _ := strconv.ParseFloat(m[4], 64)
	qp, _ := strconv.ParseFloat(m[8], 64)
	return Progress{
		EncodedFrames: encoded,
		TotalFrames:   total,
		FPS:           fps,
		BitrateKbps:   kbps,
		ETA:           m[5],
		Size:          m[6],
		EstSize:       m[7],
		QP:            qp,
	}, true
}
