package model

// Status is one step of the probe workflow, rendered with its color.
type Status struct {
	ID    uint
	Name  string
	Color string
}

// Priority is a named processing priority level.
type Priority struct {
	ID    uint
	Name  string
	Level int
}

// CreateStatusRequest adds a workflow status.
type CreateStatusRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color" binding:"required"`
}

// CreatePriorityRequest adds a priority level.
type CreatePriorityRequest struct {
	Name  string `json:"name" binding:"required"`
	Level int    `json:"level" binding:"required"`
}

// StatusResponse is the API shape of a status. Status IDs stay numeric so
// clients can join them against the status_id field of probes.
type StatusResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// PriorityResponse is the API shape of a priority.
type PriorityResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}
