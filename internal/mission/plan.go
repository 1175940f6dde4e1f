package mission

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/coilpress/muxctl/internal/state"
	"github.com/coilpress/muxctl/internal/title"
)

// Plan is one resolved, validated title run ready for title.Pipeline,
// labeled with the mission index it came from for error reporting (§7:
// "C9 aggregates and converts them to a mission-level failure... reports
// to C10").
type Plan struct {
	MissionIndex int
	Request      title.Request
}

// Expand converts every mission in doc into one or more Plan
// entries (§4.10: "enqueue titles to C9"). It assumes doc has already
// been through Resolve and Validate; episode/file-matching errors are
// still possible here for series missions (a file can vanish between
// validation and planning) and are collected rather than raised
// individually so the whole batch's shape is visible at once.
func Expand(doc *Document) ([]Plan, []error) {
	var plans []Plan
	var errs []error
	resolver := newOutputCollisionResolver()

	for i, m := range doc.AllMissionConfig {
		switch m.Type {
		case state.MissionSingle:
			sc, err := m.Single()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			plans = append(plans, Plan{
				MissionIndex: i,
				Request:      singleRequest(sc, m.UniversalConfig, resolver),
			})
		case state.MissionSeries:
			sc, err := m.Series()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			seriesPlans, seriesErrs := seriesRequests(i, sc, m.UniversalConfig, resolver)
			plans = append(plans, seriesPlans...)
			errs = append(errs, seriesErrs...)
		default:
			errs = append(errs, &ConfigError{Path: fmt.Sprintf("all_mission_config[%d].type", i), Reason: "unknown mission type"})
		}
	}
	return plans, errs
}

func singleRequest(sc state.SingleConfig, universal state.TitleOptions, resolver *outputCollisionResolver) title.Request {
	options := universal
	if len(sc.SegmentedTranscodeConfigList) > 0 {
		options.Video.SegmentedTranscodeConfigList = sc.SegmentedTranscodeConfigList
	}

	outputPath := resolver.resolve(sc.InputPath, filepath.Join(sc.OutputDir, sc.OutputName))
	outputDir, outputName := filepath.Split(outputPath)
	outputName = strings.TrimSuffix(outputName, filepath.Ext(outputName))

	return title.Request{
		InputPath:      sc.InputPath,
		CacheDir:       filepath.Join(universal.CacheDir, "single_"+state.HashedCacheDir(sc.OutputName, sc.InputPath)),
		OutputDir:      strings.TrimSuffix(outputDir, string(filepath.Separator)),
		OutputName:     outputName,
		ContainerTitle: outputName,
		Options:        options,
		GopFrameCnt:    options.Video.GopFrameCnt,
	}
}

func seriesRequests(missionIdx int, sc state.SeriesConfig, universal state.TitleOptions, resolver *outputCollisionResolver) ([]Plan, []error) {
	var plans []Plan
	var errs []error

	re, err := regexp.Compile(sc.FilenameRegexp)
	if err != nil {
		return nil, []error{&ConfigError{Path: "type_related_config.filename_regexp", Reason: err.Error()}}
	}
	byEpisode, err := filesByEpisode(sc.InputDir, re)
	if err != nil {
		return nil, []error{&ConfigError{Path: "type_related_config.input_dir", Reason: err.Error()}}
	}

	episodeList, err := ResolvedEpisodeList(sc)
	if err != nil {
		return nil, []error{&ConfigError{Path: "type_related_config.episode_list", Reason: err.Error()}}
	}

	for _, ep := range episodeList {
		inputPath, ok := byEpisode[ep]
		if !ok {
			errs = append(errs, &NotFoundError{Path: fmt.Sprintf("%s (episode %d)", sc.InputDir, ep), Kind: "file"})
			continue
		}

		options := universal
		options.Video.SegmentedTranscodeConfigList = sc.SegmentedTranscodeConfig[strconv.Itoa(ep)]
		options.Audio.ExternalFiles = substituteEpisodeInCompanions(universal.Audio.ExternalFiles, ep)
		options.Subtitle.ExternalFiles = substituteEpisodeInCompanions(universal.Subtitle.ExternalFiles, ep)
		options.Chapter.ExternalFile = substituteEpisode(universal.Chapter.ExternalFile, ep)

		// output_template is itself the requested output path (directory
		// component included), carrying the "{episode}" placeholder.
		requestedPath := substituteEpisode(sc.OutputTemplate, ep)
		finalPath := resolver.resolve(inputPath, requestedPath)
		finalDir, finalBase := filepath.Split(finalPath)
		finalName := strings.TrimSuffix(finalBase, filepath.Ext(finalBase))

		plans = append(plans, Plan{
			MissionIndex: missionIdx,
			Request: title.Request{
				InputPath:      inputPath,
				CacheDir:       filepath.Join(universal.CacheDir, "series_"+state.HashedCacheDir(sc.InputDir, strconv.Itoa(ep))),
				OutputDir:      strings.TrimSuffix(finalDir, string(filepath.Separator)),
				OutputName:     finalName,
				ContainerTitle: finalName,
				Options:        options,
				GopFrameCnt:    options.Video.GopFrameCnt,
			},
		})
	}

	return plans, errs
}

// substituteEpisode replaces every "{episode}" placeholder with ep's
// decimal representation. Empty input passes through unchanged.
func substituteEpisode(tmpl string, ep int) string {
	if tmpl == "" {
		return ""
	}
	return strings.ReplaceAll(tmpl, "{episode}", strconv.Itoa(ep))
}

func substituteEpisodeInCompanions(files []state.ExternalCompanionFile, ep int) []state.ExternalCompanionFile {
	if len(files) == 0 {
		return nil
	}
	out := make([]state.ExternalCompanionFile, len(files))
	for i, f := range files {
		out[i] = f
		out[i].Path = substituteEpisode(f.Path, ep)
	}
	return out
}

// filesByEpisode maps episode number to the single file in dir whose name
// matches re's first capture group.
func filesByEpisode(dir string, re *regexp.Regexp) (map[int]string, error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}
	found := make(map[int]string)
	for _, path := range entries {
		m := re.FindStringSubmatch(filepath.Base(path))
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		found[n] = path
	}
	return found, nil
}
