package mission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coilpress/muxctl/internal/state"
)

func TestResolveTemplatesSubstitutesKnownNamespace(t *testing.T) {
	templates := ParameterTemplates{
		"audio_transcoding_cmd_param_template": {
			"opus_128k": []interface{}{"ffmpeg", "-c:a", "libopus", "-b:a", "128k"},
		},
	}
	raw := map[string]interface{}{
		"universal_config": map[string]interface{}{
			"audio_related_config": map[string]interface{}{
				"audio_transcoding_cmd_param_template": "opus_128k",
			},
		},
	}

	resolved, err := ResolveTemplates(raw, templates)
	require.NoError(t, err)

	audio := resolved.(map[string]interface{})["universal_config"].(map[string]interface{})["audio_related_config"].(map[string]interface{})
	assert.Equal(t, []interface{}{"ffmpeg", "-c:a", "libopus", "-b:a", "128k"}, audio["audio_transcoding_cmd_param_template"])
}

func TestResolveTemplatesRejectsUnknownPreset(t *testing.T) {
	templates := ParameterTemplates{"audio_transcoding_cmd_param_template": {"opus_128k": []interface{}{"x"}}}
	raw := map[string]interface{}{"audio_transcoding_cmd_param_template": "flac_lossless"}

	_, err := ResolveTemplates(raw, templates)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestStripNonPrintableReportsWhetherAnythingChanged(t *testing.T) {
	clean, stripped := StripNonPrintable("/cache/show")
	assert.Equal(t, "/cache/show", clean)
	assert.False(t, stripped)

	dirty, stripped := StripNonPrintable("/cache/sh\x00ow\x01")
	assert.Equal(t, "/cache/show", dirty)
	assert.True(t, stripped)
}

func TestResolvedEpisodeListExpandsShorthand(t *testing.T) {
	list, err := ResolvedEpisodeList(state.SeriesConfig{EpisodeList: "1~4"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, list)
}

func TestResolvedEpisodeListAcceptsExplicitArray(t *testing.T) {
	list, err := ResolvedEpisodeList(state.SeriesConfig{EpisodeList: []interface{}{float64(1), float64(3), float64(5)}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, list)
}

func TestResolvedEpisodeListRejectsMissing(t *testing.T) {
	_, err := ResolvedEpisodeList(state.SeriesConfig{})
	require.Error(t, err)
}

func TestOutputCollisionResolverDisambiguatesDuplicates(t *testing.T) {
	r := newOutputCollisionResolver()
	a := r.resolve("in1.mkv", "/out/show")
	b := r.resolve("in2.mkv", "/out/show")
	again := r.resolve("in1.mkv", "/out/show")

	assert.Equal(t, "/out/show", a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "/out/show (1)", b)
	assert.Equal(t, a, again, "the original owner gets its claimed path back unchanged")
}

func TestValidateUniversalRejectsUnknownEnum(t *testing.T) {
	doc := &Document{AllMissionConfig: []RawConfig{{
		Type:              state.MissionSingle,
		TypeRelatedConfig: []byte(`{"input_path":"/x","output_dir":"/y","output_name":"z"}`),
		UniversalConfig: state.TitleOptions{
			PackageFormat: "avi",
			Video:         state.VideoRelatedConfig{ProcessOption: "copy"},
			Audio:         state.AudioRelatedConfig{InternalProcessOption: "copy", ExternalProcessOption: "skip", Prior: "internal"},
			Subtitle:      state.SubtitleRelatedConfig{ProcessOption: "skip", Prior: "internal"},
			Chapter:       state.ChapterRelatedConfig{ProcessOption: "skip"},
		},
	}}}

	errs := Validate(doc, ValidateOptions{})
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if _, ok := e.(*ConfigError); ok {
			found = true
		}
	}
	assert.True(t, found, "unknown package_format should produce a ConfigError")
}

func TestValidateSingleReportsNotFoundForMissingInput(t *testing.T) {
	dir := t.TempDir()
	doc := &Document{AllMissionConfig: []RawConfig{{
		Type: state.MissionSingle,
		TypeRelatedConfig: []byte(`{"input_path":"` + filepath.Join(dir, "missing.mkv") + `","output_dir":"` + dir + `","output_name":"out"}`),
		UniversalConfig: state.TitleOptions{
			PackageFormat: state.PackageMKV,
			Video:         state.VideoRelatedConfig{ProcessOption: state.ProcessCopy},
			Audio:         state.AudioRelatedConfig{InternalProcessOption: state.ProcessCopy, ExternalProcessOption: state.ProcessSkip, Prior: state.PriorInternal},
			Subtitle:      state.SubtitleRelatedConfig{ProcessOption: state.ProcessSkip, Prior: state.PriorInternal},
			Chapter:       state.ChapterRelatedConfig{ProcessOption: state.ProcessSkip},
		},
	}}}

	errs := Validate(doc, ValidateOptions{})
	require.NotEmpty(t, errs)
	var notFound *NotFoundError
	assert.ErrorAs(t, errs[len(errs)-1], &notFound)
}

func TestExpandSingleProducesOneTitleRequest(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(inputPath, []byte("x"), 0o644))

	doc := &Document{AllMissionConfig: []RawConfig{{
		Type:              state.MissionSingle,
		TypeRelatedConfig: []byte(`{"input_path":"` + inputPath + `","output_dir":"` + dir + `","output_name":"movie-out"}`),
		UniversalConfig: state.TitleOptions{
			CacheDir:      filepath.Join(dir, "cache"),
			PackageFormat: state.PackageMKV,
			Video:         state.VideoRelatedConfig{ProcessOption: state.ProcessCopy},
		},
	}}}

	plans, errs := Expand(doc)
	require.Empty(t, errs)
	require.Len(t, plans, 1)
	assert.Equal(t, inputPath, plans[0].Request.InputPath)
	assert.Equal(t, "movie-out", plans[0].Request.OutputName)
	assert.Equal(t, dir, plans[0].Request.OutputDir)
}

func TestExpandSeriesProducesOneRequestPerEpisode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Show - 01.mkv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Show - 02.mkv"), []byte("x"), 0o644))

	outDir := t.TempDir()
	doc := &Document{AllMissionConfig: []RawConfig{{
		Type: state.MissionSeries,
		TypeRelatedConfig: []byte(`{
			"input_dir":"` + dir + `",
			"filename_regexp":"Show - (\\d+)\\.mkv",
			"output_template":"` + outDir + `/Show E{episode}",
			"episode_list":"1~2"
		}`),
		UniversalConfig: state.TitleOptions{
			CacheDir:      filepath.Join(dir, "cache"),
			PackageFormat: state.PackageMKV,
			Video:         state.VideoRelatedConfig{ProcessOption: state.ProcessCopy},
		},
	}}}

	plans, errs := Expand(doc)
	require.Empty(t, errs)
	require.Len(t, plans, 2)
	assert.Equal(t, "Show E1", plans[0].Request.OutputName)
	assert.Equal(t, "Show E2", plans[1].Request.OutputName)
}

func TestResolveFileAcceptsYAMLMissionDocument(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(inputPath, []byte("x"), 0o644))

	missionPath := filepath.Join(dir, "mission.yaml")
	yamlDoc := "basic_config:\n" +
		"  fail_fast: true\n" +
		"all_mission_config:\n" +
		"  - type: single\n" +
		"    type_related_config:\n" +
		"      input_path: " + inputPath + "\n" +
		"      output_dir: " + dir + "\n" +
		"      output_name: movie-out\n" +
		"    universal_config:\n" +
		"      cache_dir: " + filepath.Join(dir, "cache") + "\n" +
		"      package_format: mkv\n"
	require.NoError(t, os.WriteFile(missionPath, []byte(yamlDoc), 0o644))

	doc, warnings, err := ResolveFile(missionPath, nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, doc.BasicConfig.FailFast)
	require.Len(t, doc.AllMissionConfig, 1)
	assert.Equal(t, state.MissionSingle, doc.AllMissionConfig[0].Type)
}

func TestLoadTemplatesFileAcceptsJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"audio_transcoding_cmd_param_template":{"opus_128k":["ffmpeg","-b:a","128k"]}}`), 0o644))

	templates, err := LoadTemplatesFile(path)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"ffmpeg", "-b:a", "128k"}, templates["audio_transcoding_cmd_param_template"]["opus_128k"])
}
