package title

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coilpress/muxctl/internal/state"
)

func TestShortenIfNeededLeavesShortPathsAlone(t *testing.T) {
	req := Request{InputPath: "/media/show.mkv", CacheDir: t.TempDir()}
	rm := &cleanupSet{}
	require.NoError(t, shortenIfNeeded(&req, rm))
	assert.Equal(t, "/media/show.mkv", req.InputPath)
	assert.Empty(t, rm.paths)
}

func TestShortenIfNeededCopiesOverlongPaths(t *testing.T) {
	dir := t.TempDir()
	longName := strings.Repeat("a", 300) + ".mkv"
	longPath := filepath.Join(dir, longName)
	require.NoError(t, os.WriteFile(longPath, []byte("source bytes"), 0o644))

	req := Request{InputPath: longPath, CacheDir: filepath.Join(dir, "cache")}
	require.NoError(t, os.MkdirAll(req.CacheDir, 0o755))
	rm := &cleanupSet{}

	require.NoError(t, shortenIfNeeded(&req, rm))
	assert.NotEqual(t, longPath, req.InputPath)
	assert.Len(t, rm.paths, 1)

	data, err := os.ReadFile(req.InputPath)
	require.NoError(t, err)
	assert.Equal(t, "source bytes", string(data))
}

func TestCleanupSetRemovesAllTrackedPaths(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.tmp")
	b := filepath.Join(dir, "b.tmp")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("y"), 0o644))

	rm := &cleanupSet{}
	rm.add(a, b)
	rm.removeAll()

	_, errA := os.Stat(a)
	_, errB := os.Stat(b)
	assert.True(t, os.IsNotExist(errA))
	assert.True(t, os.IsNotExist(errB))
}

func TestApplyDelayDeltasAddsToProbeDelay(t *testing.T) {
	tracks := []state.TrackFile{
		{Info: state.TrackInfo{TrackID: 0, DelayMs: 100}},
		{Info: state.TrackInfo{TrackID: 1, DelayMs: -50}},
	}
	out := applyDelayDeltas(tracks, map[int]int64{0: 25, 2: 999})
	assert.Equal(t, int64(125), out[0].Info.DelayMs)
	assert.Equal(t, int64(-50), out[1].Info.DelayMs, "track without a configured delta is untouched")
}

func TestApplyDelayDeltasNoopWhenEmpty(t *testing.T) {
	tracks := []state.TrackFile{{Info: state.TrackInfo{TrackID: 0, DelayMs: 10}}}
	out := applyDelayDeltas(tracks, nil)
	assert.Equal(t, int64(10), out[0].Info.DelayMs)
}

func TestReferenceTrackIDInPlaceOnlyForMKVCopy(t *testing.T) {
	tf := state.TrackFile{Info: state.TrackInfo{TrackID: 3}}

	copyMKV := Request{Options: state.TitleOptions{
		Video:         state.VideoRelatedConfig{ProcessOption: state.ProcessCopy},
		PackageFormat: state.PackageMKV,
	}}
	assert.Equal(t, 3, referenceTrackID(tf, copyMKV))

	transcodeMKV := copyMKV
	transcodeMKV.Options.Video.ProcessOption = state.ProcessTranscode
	assert.Equal(t, -1, referenceTrackID(tf, transcodeMKV))

	copyMP4 := copyMKV
	copyMP4.Options.PackageFormat = state.PackageMP4
	assert.Equal(t, -1, referenceTrackID(tf, copyMP4))
}

func TestExternalCompanionTracksSingleFileNoIndexList(t *testing.T) {
	ef := state.ExternalCompanionFile{Path: t.TempDir() + "/sub.srt", Language: "eng"}
	require.NoError(t, os.WriteFile(ef.Path, []byte("1\n00:00:00,000 --> 00:00:01,000\nhi\n"), 0o644))

	tracks, err := externalCompanionTracks(nil, nil, ef, state.TrackSubtitle)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, state.TrackSubtitle, tracks[0].Info.Kind)
	assert.Equal(t, "eng", tracks[0].Info.Language)
	assert.Equal(t, ef.Path, tracks[0].Filepath)
}

func TestBarrierClosesExactlyOnceWhenCalledTwice(t *testing.T) {
	ioComplete := make(chan struct{})
	closeBarrier := func() {
		select {
		case <-ioComplete:
		default:
			close(ioComplete)
		}
	}
	assert.NotPanics(t, func() {
		closeBarrier()
		closeBarrier()
	})
	select {
	case <-ioComplete:
	default:
		t.Fatal("barrier channel should be closed")
	}
}
