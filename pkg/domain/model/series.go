package model

import "time"

// ParsedName is the decomposition of a valid series base name such as
// "T2-4C1". The digit groups stay strings: they are identifiers, and
// leading zeros must survive round-trips.
type ParsedName struct {
	FullName     string `json:"full_name"`
	MethodNumber string `json:"method_number"`
	RepeatNumber string `json:"repeat_number"`
}

// SeriesProbeDraft is one of the sixteen derived probes generated from a
// base name. Drafts have no identity of their own; the persistence layer
// assigns IDs when a series is committed.
type SeriesProbeDraft struct {
	Name         string    `json:"name"`
	SampleMass   float64   `json:"sample_mass"`
	VolumeMl     float64   `json:"volume_ml"`
	MethodNumber string    `json:"method_number"`
	IsSeries     bool      `json:"is_series"`
	SeriesBase   string    `json:"series_base"`
	Tags         []string  `json:"tags"`
	StatusID     uint      `json:"status_id"`
	Priority     int       `json:"priority"`
	Fe           float64   `json:"Fe"`
	Ni           float64   `json:"Ni"`
	Cu           float64   `json:"Cu"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidateSeriesRequest checks a candidate base name and previews the
// series it would generate. An empty name is a valid request: the verdict
// comes back in the response body, not as a binding error.
type ValidateSeriesRequest struct {
	BaseName string `json:"base_name"`
}

// ValidateSeriesResponse is the preview contract: a parse verdict plus the
// names the series would generate and any that already exist.
type ValidateSeriesResponse struct {
	Valid            bool     `json:"valid"`
	Error            string   `json:"error,omitempty"`
	MethodNumber     string   `json:"method_number,omitempty"`
	RepeatNumber     string   `json:"repeat_number,omitempty"`
	GeneratedNames   []string `json:"generated_names,omitempty"`
	ExistingInSeries []string `json:"existing_in_series,omitempty"`
	Warning          string   `json:"warning,omitempty"`
}

// CreateSeriesRequest is the wire shape a consumer submits to persist a
// generated series. Mass and volume arrive raw (possibly empty or
// non-numeric form input).
type CreateSeriesRequest struct {
	BaseName     string             `json:"base_name" binding:"required"`
	MethodNumber string             `json:"method_number"`
	RepeatNumber string             `json:"repeat_number"`
	Mass         RawNumber          `json:"mass"`
	Volume       RawNumber          `json:"volume"`
	Probes       []SeriesProbeDraft `json:"probes"`
}

// CreateSeriesResponse reports how many probes were actually created.
type CreateSeriesResponse struct {
	BaseName      string   `json:"base_name"`
	MethodNumber  string   `json:"method_number"`
	CreatedCount  int      `json:"created_count"`
	ProbesCreated []string `json:"probes_created"`
}
