package probe

import (
	"testing"

	"github.com/coilpress/muxctl/internal/state"
)

const sampleJSON = `{
  "media": {
    "track": [
      {
        "@type": "General",
        "writing_application": "mkvmerge v12.0.0 ('Back In Time')",
        "attachments": "font1.ttf / font2.otf"
      },
      {
        "@type": "Video",
        "streamorder": "0",
        "format": "HEVC",
        "duration": "5000",
        "bit_rate": "8000000",
        "delay": "0",
        "width": "3840",
        "height": "2160",
        "bit_depth": "10",
        "frame_rate_mode": "CFR",
        "framerate_num": "24000",
        "framerate_den": "1001",
        "matrix_coefficients": "BT.2020 non-constant",
        "colour_primaries": "BT.2020",
        "transfer_characteristics": "PQ",
        "hdr_format": "SMPTE ST 2094 App 4",
        "mastering_display_luminance": "min: 0.0001 cd/m2, max: 1000 cd/m2",
        "maximum_content_light_level": "1000 cd/m2",
        "maximum_frameaverage_light_level": "400 cd/m2"
      },
      {
        "@type": "Audio",
        "streamorder": "1-0",
        "format": "AC-3",
        "duration": "5000",
        "bit_rate": "640000",
        "delay": "0",
        "language": "eng",
        "default": "Yes"
      },
      {
        "@type": "Text",
        "streamorder": "2",
        "format": "PGS",
        "language": "eng"
      }
    ]
  }
}`

func TestParseJSONBuildsContainerInfo(t *testing.T) {
	c, err := ParseJSON("movie.mkv", []byte(sampleJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.WritingApplication != "mkvmerge v12.0.0 ('Back In Time')" {
		t.Fatalf("writing_application = %q", c.WritingApplication)
	}
	if len(c.AttachmentFilenames) != 2 {
		t.Fatalf("attachments = %v", c.AttachmentFilenames)
	}

	v := c.PrimaryVideo()
	if v == nil {
		t.Fatal("expected a video track")
	}
	if v.TrackID != 0 {
		t.Errorf("video track id = %d, want 0", v.TrackID)
	}
	if v.Video.FrameRate != (state.Rational{Num: 24000, Den: 1001}) {
		t.Errorf("frame rate = %v", v.Video.FrameRate)
	}
	if v.Video.ColorMatrix != state.ColorMatrixBT2020NC {
		t.Errorf("color matrix = %q", v.Video.ColorMatrix)
	}
	if v.Video.HDR == nil || v.Video.HDR.IsSDR() {
		t.Fatal("expected HDR10 metadata")
	}
	if v.Video.HDR.MaxContentLightLevel != 1000 {
		t.Errorf("max cll = %v", v.Video.HDR.MaxContentLightLevel)
	}

	audios := c.AudioTracks()
	if len(audios) != 1 {
		t.Fatalf("expected 1 audio track, got %d", len(audios))
	}
	if audios[0].TrackID != 0 {
		t.Errorf("audio track id from streamorder %q = %d, want 0 (last integer component)", "1-0", audios[0].TrackID)
	}

	if !c.HasBitmapSubtitle() {
		t.Error("expected PGS subtitle to be detected as bitmap")
	}
}

func TestParseJSONMissingColorTagsDerivedFromSize(t *testing.T) {
	raw := `{"media":{"track":[
		{"@type":"Video","streamorder":"0","format":"AVC","width":"720","height":"480","bit_depth":"8"}
	]}}`
	c, err := ParseJSON("sd.mp4", []byte(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := c.PrimaryVideo()
	if v.Video.ColorMatrix != state.ColorMatrixSMPTE170 {
		t.Errorf("derived matrix = %q, want smpte170m for SD picture", v.Video.ColorMatrix)
	}
	if v.Video.ColorRange != state.ColorRangeLimited {
		t.Errorf("missing color_range should default to limited, got %v", v.Video.ColorRange)
	}
}

func TestIsReliableMetadata(t *testing.T) {
	cases := []struct {
		name string
		c    ContainerInfo
		want bool
	}{
		{"trusted mkvmerge v12", ContainerInfo{Ext: ".mkv", WritingApplication: "mkvmerge v12.0.0"}, true},
		{"untrusted mkvmerge v8", ContainerInfo{Ext: ".mkv", WritingApplication: "mkvmerge v8.3.0"}, false},
		{"trusted voukoder", ContainerInfo{Ext: ".mkv", WritingApplication: "Voukoder v10.0"}, true},
		{"untrusted mp4", ContainerInfo{Ext: ".mp4", WritingApplication: "mkvmerge v12.0.0"}, false},
		{"untrusted unknown writer", ContainerInfo{Ext: ".mkv", WritingApplication: "HandBrake 1.6.1"}, false},
	}
	for _, tc := range cases {
		if got := tc.c.IsReliableMetadata(); got != tc.want {
			t.Errorf("%s: IsReliableMetadata() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
