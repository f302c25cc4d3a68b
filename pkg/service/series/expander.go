package series

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/probelab/probelab-app/pkg/constant"
	"github.com/probelab/probelab-app/pkg/domain/model"
)

// ErrInvalidNameFormat is returned when a candidate base name does not
// match the series naming convention.
var ErrInvalidNameFormat = errors.New("invalid base name: expected format T2-<номер_методики>C<номер_повторности>")

// baseNamePattern anchors the whole input: prefix "T2-", the method number,
// a literal "C", the repeat number, nothing else. Case sensitive.
var baseNamePattern = regexp.MustCompile(`^T2-(\d+)C(\d+)$`)

// Defaults substituted when mass or volume form input is empty or
// non-numeric. Mirrors the safe-default policy of the rest of the UI.
const (
	DefaultSampleMass = 1.0
	DefaultVolumeMl   = 100.0
)

// seriesTemplates is the fixed expansion table. The order is the output
// order and is load-bearing: downstream display and index-based
// correlation depend on it. {m} is the method number, {r} the repeat
// number; multi-stage names repeat {m} once per stage on purpose.
var seriesTemplates = [16]string{
	"T2-{m}A{r}",
	"T2-{m}B{r}",
	"T2-L{m}C{r}",
	"T2-L{m}A{r}",
	"T2-L{m}B{r}",
	"T2-L{m}P{m}C{r}",
	"T2-L{m}P{m}A{r}",
	"T2-L{m}P{m}B{r}",
	"T2-L{m}P{m}F{m}C{r}",
	"T2-L{m}P{m}F{m}A{r}",
	"T2-L{m}P{m}F{m}B{r}",
	"T2-L{m}P{m}F{m}D{r}",
	"T2-L{m}P{m}F{m}N{m}C{r}",
	"T2-L{m}P{m}F{m}N{m}A{r}",
	"T2-L{m}P{m}F{m}N{m}B{r}",
	"T2-L{m}P{m}F{m}N{m}E{r}",
}

// SeriesSize is the number of probes a single base name expands to.
const SeriesSize = len(seriesTemplates)

// Expander parses series base names and expands them into probe drafts.
// It is stateless apart from the injectable clock and safe for concurrent
// use.
type Expander struct {
	now func() time.Time
}

// NewExpander returns an Expander using the wall clock.
func NewExpander() *Expander {
	return &Expander{now: time.Now}
}

// NewExpanderWithClock lets tests pin the draft timestamps.
func NewExpanderWithClock(now func() time.Time) *Expander {
	return &Expander{now: now}
}

// ParseBaseName validates a candidate base name against the naming
// convention and captures its digit groups. The groups stay strings so
// that leading zeros and arbitrarily long digit runs survive verbatim.
func (e *Expander) ParseBaseName(input string) (model.ParsedName, error) {
	matches := baseNamePattern.FindStringSubmatch(input)
	if matches == nil {
		return model.ParsedName{}, fmt.Errorf("%w: got %q", ErrInvalidNameFormat, input)
	}
	return model.ParsedName{
		FullName:     input,
		MethodNumber: matches[1],
		RepeatNumber: matches[2],
	}, nil
}

// GenerateSeries expands a parsed name into the fixed ordered set of
// sixteen probe drafts. Mass and volume arrive as raw form strings;
// unparsable values fall back to the documented defaults and never
// suppress generation. The function is total over any valid ParsedName.
func (e *Expander) GenerateSeries(parsed model.ParsedName, mass, volume string) []model.SeriesProbeDraft {
	sampleMass := coerceFloat(mass, DefaultSampleMass)
	volumeMl := coerceFloat(volume, DefaultVolumeMl)
	createdAt := e.now()

	tags := []string{
		"методика_" + parsed.MethodNumber,
		"серия_" + parsed.FullName,
	}

	drafts := make([]model.SeriesProbeDraft, 0, SeriesSize)
	for _, tpl := range seriesTemplates {
		name := strings.ReplaceAll(tpl, "{m}", parsed.MethodNumber)
		name = strings.ReplaceAll(name, "{r}", parsed.RepeatNumber)

		drafts = append(drafts, model.SeriesProbeDraft{
			Name:         name,
			SampleMass:   sampleMass,
			VolumeMl:     volumeMl,
			MethodNumber: parsed.MethodNumber,
			IsSeries:     true,
			SeriesBase:   parsed.FullName,
			Tags:         append([]string(nil), tags...),
			StatusID:     constant.DefaultStatusID,
			Priority:     constant.DefaultPriority,
			Fe:           0,
			Ni:           0,
			Cu:           0,
			CreatedAt:    createdAt,
		})
	}
	return drafts
}

// Expand composes parse and generate: it either surfaces the parse error
// untouched or returns the sixteen drafts for preview or persistence.
func (e *Expander) Expand(baseName, mass, volume string) ([]model.SeriesProbeDraft, error) {
	parsed, err := e.ParseBaseName(baseName)
	if err != nil {
		return nil, err
	}
	return e.GenerateSeries(parsed, mass, volume), nil
}

// GeneratedNames returns just the sixteen derived names in table order.
func GeneratedNames(parsed model.ParsedName) []string {
	names := make([]string, 0, SeriesSize)
	for _, tpl := range seriesTemplates {
		name := strings.ReplaceAll(tpl, "{m}", parsed.MethodNumber)
		name = strings.ReplaceAll(name, "{r}", parsed.RepeatNumber)
		names = append(names, name)
	}
	return names
}

// coerceFloat parses raw form input, substituting fallback for empty or
// non-numeric values.
func coerceFloat(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
