package mission

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/coilpress/muxctl/internal/state"
)

// allowedProcessOptions etc. mirror the closed enumerations in
// internal/state (§4.11); validated explicitly here because JSON decode
// accepts any string into these named-string types without complaint.
var (
	allowedProcessOptions = map[state.ProcessOption]bool{
		state.ProcessCopy: true, state.ProcessTranscode: true, state.ProcessSkip: true,
	}
	allowedPriorOptions = map[state.PriorOption]bool{
		state.PriorInternal: true, state.PriorExternal: true,
	}
	allowedPackageFormats = map[state.PackageFormat]bool{
		state.PackageMKV: true, state.PackageMP4: true,
	}
	allowedVideoMethods = map[state.VideoTranscodingMethod]bool{
		state.MethodDirectNVENC: true, state.MethodFrameServerX264: true,
		state.MethodFrameServerX265: true, state.MethodFrameServerNVENC: true,
	}
	allowedFrameRateModes = map[state.OutputFrameRateMode]bool{
		state.OutputFrameRateCFR: true, state.OutputFrameRateVFR: true,
	}
	allowedDynamicRangeModes = map[state.OutputDynamicRangeMode]bool{
		state.DynamicRangePreserve: true, state.DynamicRangeSDR: true,
	}
)

// iso639 is a curated subset of ISO 639-1/639-2 language codes covering
// the languages that actually show up in media releases. It is not the
// full standard table; unrecognized-but-plausible codes (two or three
// letters, compared case-insensitively) are accepted with a looser shape check rather than rejected
// outright, since no single source in this module carries the complete
// registry.
var iso639 = map[string]bool{
	"eng": true, "jpn": true, "chi": true, "zho": true, "kor": true,
	"fre": true, "fra": true, "ger": true, "deu": true, "spa": true,
	"ita": true, "por": true, "rus": true, "ara": true, "und": true,
	"vie": true, "tha": true, "pol": true, "dut": true, "nld": true,
}

var looseLanguageCode = regexp.MustCompile(`^[a-z]{2,3}$`)

func validLanguage(code string) bool {
	if code == "" {
		return true // unset is allowed; absence is not a language claim
	}
	if iso639[strings.ToLower(code)] {
		return true
	}
	return looseLanguageCode.MatchString(strings.ToLower(code))
}

// ValidateOptions carries the filesystem state validation needs to reason
// about beyond the document itself.
type ValidateOptions struct {
	// ProducibleDirs are output directories an earlier mission in the
	// same batch will create, so a later mission's input referencing one
	// of them is not yet a NotFoundError (§4.10: "producible by an
	// earlier mission in the batch").
	ProducibleDirs map[string]bool
}

// Validate runs every §4.10 validation rule over doc and returns every
// failure found (not just the first), since ConfigError is fatal to the
// whole batch and should be reported in full before any transcoding
// starts.
func Validate(doc *Document, opts ValidateOptions) []error {
	var errs []error
	for i, m := range doc.AllMissionConfig {
		path := fmt.Sprintf("all_mission_config[%d]", i)
		errs = append(errs, validateUniversal(path, m.UniversalConfig)...)

		switch m.Type {
		case state.MissionSingle:
			sc, err := m.Single()
			if err != nil {
				errs = append(errs, &ConfigError{Path: path, Reason: err.Error()})
				continue
			}
			errs = append(errs, validateSingle(path, sc, opts)...)
		case state.MissionSeries:
			sc, err := m.Series()
			if err != nil {
				errs = append(errs, &ConfigError{Path: path, Reason: err.Error()})
				continue
			}
			errs = append(errs, validateSeries(path, sc, opts)...)
		default:
			errs = append(errs, &ConfigError{Path: path + ".type", Reason: fmt.Sprintf("unknown mission type %q", m.Type)})
		}
	}
	return errs
}

func validateUniversal(path string, u state.TitleOptions) []error {
	var errs []error
	check := func(ok bool, field, reason string) {
		if !ok {
			errs = append(errs, &ConfigError{Path: path + "." + field, Reason: reason})
		}
	}

	check(allowedPackageFormats[u.PackageFormat], "universal_config.package_format", fmt.Sprintf("unknown package_format %q", u.PackageFormat))
	check(allowedProcessOptions[u.Video.ProcessOption], "universal_config.video_related_config.process_option", fmt.Sprintf("unknown process_option %q", u.Video.ProcessOption))
	if u.Video.ProcessOption == state.ProcessTranscode {
		check(allowedVideoMethods[u.Video.Method], "universal_config.video_related_config.method", fmt.Sprintf("unknown method %q", u.Video.Method))
		if u.Video.OutputFrameRateMode != "" {
			check(allowedFrameRateModes[u.Video.OutputFrameRateMode], "universal_config.video_related_config.output_frame_rate_mode", fmt.Sprintf("unknown output_frame_rate_mode %q", u.Video.OutputFrameRateMode))
		}
		if u.Video.OutputDynamicRangeMode != "" {
			check(allowedDynamicRangeModes[u.Video.OutputDynamicRangeMode], "universal_config.video_related_config.output_dynamic_range_mode", fmt.Sprintf("unknown output_dynamic_range_mode %q", u.Video.OutputDynamicRangeMode))
		}
	}

	check(allowedProcessOptions[u.Audio.InternalProcessOption], "universal_config.audio_related_config.internal_process_option", fmt.Sprintf("unknown internal_process_option %q", u.Audio.InternalProcessOption))
	check(allowedProcessOptions[u.Audio.ExternalProcessOption], "universal_config.audio_related_config.external_process_option", fmt.Sprintf("unknown external_process_option %q", u.Audio.ExternalProcessOption))
	check(allowedPriorOptions[u.Audio.Prior], "universal_config.audio_related_config.prior", fmt.Sprintf("unknown prior %q", u.Audio.Prior))
	for j, ef := range u.Audio.ExternalFiles {
		check(validLanguage(ef.Language), fmt.Sprintf("universal_config.audio_related_config.external_files[%d].language", j), fmt.Sprintf("invalid language code %q", ef.Language))
	}

	check(allowedProcessOptions[u.Subtitle.ProcessOption], "universal_config.subtitle_related_config.process_option", fmt.Sprintf("unknown process_option %q", u.Subtitle.ProcessOption))
	check(allowedPriorOptions[u.Subtitle.Prior], "universal_config.subtitle_related_config.prior", fmt.Sprintf("unknown prior %q", u.Subtitle.Prior))
	for j, ef := range u.Subtitle.ExternalFiles {
		check(validLanguage(ef.Language), fmt.Sprintf("universal_config.subtitle_related_config.external_files[%d].language", j), fmt.Sprintf("invalid language code %q", ef.Language))
	}

	check(allowedProcessOptions[u.Chapter.ProcessOption], "universal_config.chapter_related_config.process_option", fmt.Sprintf("unknown process_option %q", u.Chapter.ProcessOption))

	return errs
}

func exists(path string, opts ValidateOptions) bool {
	if path == "" {
		return true
	}
	if _, err := os.Stat(path); err == nil {
		return true
	}
	return opts.ProducibleDirs[filepath.Dir(path)] || opts.ProducibleDirs[path]
}

func validateSingle(path string, sc state.SingleConfig, opts ValidateOptions) []error {
	var errs []error
	if !exists(sc.InputPath, opts) {
		errs = append(errs, &NotFoundError{Path: sc.InputPath, Kind: "file"})
	}
	if sc.OutputDir == "" {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.output_dir", Reason: "output_dir is required"})
	}
	if sc.OutputName == "" {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.output_name", Reason: "output_name is required"})
	}
	return errs
}

func validateSeries(path string, sc state.SeriesConfig, opts ValidateOptions) []error {
	var errs []error
	if !exists(sc.InputDir, opts) {
		errs = append(errs, &NotFoundError{Path: sc.InputDir, Kind: "dir"})
		return errs
	}
	if !strings.Contains(sc.OutputTemplate, "{episode}") {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.output_template", Reason: "output_template must contain {episode}"})
	}

	re, err := regexp.Compile(sc.FilenameRegexp)
	if err != nil {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.filename_regexp", Reason: err.Error()})
		return errs
	}
	videoEpisodes, err := episodesInDir(sc.InputDir, re)
	if err != nil {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.input_dir", Reason: err.Error()})
	} else if len(videoEpisodes) == 0 {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.filename_regexp", Reason: "matches no file in input_dir"})
	}

	episodeList, err := ResolvedEpisodeList(sc)
	if err != nil {
		errs = append(errs, &ConfigError{Path: path + ".type_related_config.episode_list", Reason: err.Error()})
		return errs
	}

	// Mismatches between the declared episode_list and what the video
	// directory actually contains are not fatal here, as long as the
	// video set is a superset of the declared list (§4.10 Validation).
	declared := make(map[int]bool, len(episodeList))
	for _, e := range episodeList {
		declared[e] = true
	}
	for e := range declared {
		if !videoEpisodes[e] {
			errs = append(errs, &ConfigError{Path: path + ".type_related_config.episode_list", Reason: fmt.Sprintf("episode %d has no matching file in input_dir", e)})
		}
	}

	return errs
}

// episodesInDir returns the set of episode numbers found by applying re
// (first capture group) to every file directly inside dir.
func episodesInDir(dir string, re *regexp.Regexp) (map[int]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	found := make(map[int]bool)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := re.FindStringSubmatch(entry.Name())
		if len(m) < 2 {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(m[1], "%d", &n); err == nil {
			found[n] = true
		}
	}
	return found, nil
}
