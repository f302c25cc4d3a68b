package model

import "time"

// --- Core domain object ---

// Probe is a tracked physical sample with its concentration measurements
// and workflow state.
type Probe struct {
	ID           uint
	Name         string
	SampleMass   float64
	VolumeMl     float64
	Fe           float64
	Ni           float64
	Cu           float64
	SolidMassG   float64
	Density      float64
	StatusID     uint
	Priority     int
	Tags         StringList
	MethodNumber string
	RepeatNumber string
	IsSeries     bool
	SeriesBase   string
	GroupID      *uint
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// --- API data transfer objects ---

// CreateProbeRequest creates a single probe. Mass and volume arrive as raw
// form input, numeric or string; non-numeric values fall back to defaults
// at the service layer.
type CreateProbeRequest struct {
	Name       string    `json:"name" binding:"required"`
	SampleMass RawNumber `json:"sample_mass"`
	VolumeMl   RawNumber `json:"volume_ml"`
	Fe         float64   `json:"Fe"`
	Ni         float64   `json:"Ni"`
	Cu         float64   `json:"Cu"`
	Tags       []string  `json:"tags"`
}

// UpdateProbeRequest carries a partial probe update; nil fields are kept.
type UpdateProbeRequest struct {
	Name       *string  `json:"name"`
	SampleMass *float64 `json:"sample_mass"`
	VolumeMl   *float64 `json:"volume_ml"`
	Fe         *float64 `json:"Fe"`
	Ni         *float64 `json:"Ni"`
	Cu         *float64 `json:"Cu"`
	StatusID   *uint    `json:"status_id"`
	Priority   *int     `json:"priority"`
	Tags       []string `json:"tags"`
}

// UpdateStatusRequest switches the workflow status of one probe.
type UpdateStatusRequest struct {
	ProbeID  string `json:"probe_id" binding:"required"`
	StatusID uint   `json:"status_id" binding:"required"`
}

// UpdatePriorityRequest switches the priority of one probe.
type UpdatePriorityRequest struct {
	ProbeID  string `json:"probe_id" binding:"required"`
	Priority int    `json:"priority" binding:"required"`
}

// SearchProbesRequest finds probes by a name substring or a concentration
// range; exactly one of the two criteria is used, substring first.
type SearchProbesRequest struct {
	NameSubstring      string              `json:"name_substring"`
	CaseSensitive      bool                `json:"case_sensitive"`
	ConcentrationRange *ConcentrationRange `json:"concentration_range"`
}

// ConcentrationRange bounds one element; nil bounds are open.
type ConcentrationRange struct {
	Element string   `json:"element"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
}

// TagsRequest adds or removes one tag on a set of probes.
type TagsRequest struct {
	Action   string   `json:"action" binding:"required"` // "add" or "remove"
	Tag      string   `json:"tag" binding:"required"`
	ProbeIDs []string `json:"probe_ids" binding:"required"`
}

// FilterByTagsRequest selects probes carrying all (or any) of the tags.
type FilterByTagsRequest struct {
	Tags     []string `json:"tags" binding:"required"`
	MatchAll *bool    `json:"match_all"`
}

// TagRule is one entry of a batch tagging request: probes matching the
// condition receive the tag.
type TagRule struct {
	Name      string        `json:"name"`
	Condition *TagCondition `json:"condition" binding:"required"`
	Tag       string        `json:"tag" binding:"required"`
}

// TagCondition selects probes either by name substring or by element range.
type TagCondition struct {
	Type          string   `json:"type"` // "name_substring" or "concentration_range"
	Substring     string   `json:"substring"`
	CaseSensitive bool     `json:"case_sensitive"`
	Element       string   `json:"element"`
	Min           *float64 `json:"min"`
	Max           *float64 `json:"max"`
}

// BatchTagsRequest applies a list of tag rules in order.
type BatchTagsRequest struct {
	Rules []TagRule `json:"rules" binding:"required"`
}

// AddFieldRequest sets one numeric field on every probe whose name
// matches the pattern.
type AddFieldRequest struct {
	FieldName string           `json:"field_name" binding:"required"`
	Pattern   *AddFieldPattern `json:"pattern" binding:"required"`
}

// AddFieldPattern selects probes by one part of the name. Names are split
// on runs of underscore, dash and whitespace; Position indexes the parts
// from zero.
type AddFieldPattern struct {
	Position  int     `json:"position"`
	Substring string  `json:"substring" binding:"required"`
	Value     float64 `json:"value"`
	MatchType string  `json:"match_type"` // "exact", "contains" (default) or "regex"
}

// GroupRequest assigns a fresh group to the listed probes.
type GroupRequest struct {
	Name     string   `json:"name" binding:"required"`
	ProbeIDs []string `json:"probe_ids" binding:"required"`
}

// ProbeResponse is the standard API shape of a probe.
type ProbeResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SampleMass   float64   `json:"sample_mass"`
	VolumeMl     float64   `json:"volume_ml"`
	Fe           float64   `json:"Fe"`
	Ni           float64   `json:"Ni"`
	Cu           float64   `json:"Cu"`
	SolidMassG   float64   `json:"solid_mass_g"`
	Density      float64   `json:"density"`
	StatusID     uint      `json:"status_id"`
	Priority     int       `json:"priority"`
	Tags         []string  `json:"tags"`
	MethodNumber string    `json:"method_number,omitempty"`
	RepeatNumber string    `json:"repeat_number,omitempty"`
	IsSeries     bool      `json:"is_series"`
	SeriesBase   string    `json:"series_base,omitempty"`
	GroupID      *string   `json:"group_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Statistics summarizes the catalog.
type Statistics struct {
	TotalProbes           int                `json:"total_probes"`
	SeriesProbes          int                `json:"series_probes"`
	TagsCount             map[string]int     `json:"tags_count"`
	AverageConcentrations map[string]float64 `json:"average_concentrations"`
}

// RecalculationStats reports one derived-field recalculation run.
type RecalculationStats struct {
	TotalProbes    int `json:"total_probes"`
	UpdatedMass    int `json:"updated_mass"`
	UpdatedDensity int `json:"updated_density"`
	SkippedDensity int `json:"skipped_density"`
}
