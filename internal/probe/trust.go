package probe

import (
	"regexp"
	"strconv"
	"strings"
)

// minTrustedMkvmergeVersion is the lowest mkvmerge major version whose
// metadata is trusted without a re-probe after a remux (§4.2).
const minTrustedMkvmergeVersion = 10

var mkvmergeVersionRe = regexp.MustCompile(`mkvmerge v(\d+)\.(\d+)\.(\d+)`)

// IsReliableMetadata implements the §4.2 trust policy: MP4, VOB, M2TS and
// unknown containers are never trusted; an MKV is trusted only if its
// writing_application names mkvmerge at version >= 10, or Voukoder.
// Untrusted containers must be pre-remuxed to MKV (§4.9) before a second
// probe can be trusted.
func (c *ContainerInfo) IsReliableMetadata() bool {
	if c.Ext != ".mkv" && c.Ext != ".mka" && c.Ext != ".mks" {
		return false
	}
	app := c.WritingApplication
	if strings.Contains(app, "Voukoder") {
		return true
	}
	if !strings.Contains(app, "mkvmerge") {
		return false
	}
	m := mkvmergeVersionRe.FindStringSubmatch(app)
	if m == nil {
		return false
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return major >= minTrustedMkvmergeVersion
}
