package probe

// HDRType returns "hdr10" if the primary video track carries HDR static
// metadata, otherwise "sdr".
func (c *ContainerInfo) HDRType() string {
	v := c.PrimaryVideo()
	if v == nil || v.Video == nil || v.Video.HDR == nil || v.Video.HDR.IsSDR() {
		return "sdr"
	}
	return "hdr10"
}
