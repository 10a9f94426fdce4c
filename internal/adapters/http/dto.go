package http

import (
	"time"

	"github.com/aretw0/rill/pkg/domain"
)

type graphCreateRequest struct {
	Nodes       []domain.Node `json:"nodes"`
	Edges       []domain.Edge `json:"edges"`
	EntryNodeID string        `json:"entry_node_id"`
}

type graphCreateResponse struct {
	GraphID string `json:"graph_id"`
}

type graphRunRequest struct {
	GraphID      string       `json:"graph_id"`
	InitialState domain.State `json:"initial_state"`
}

type runStartResponse struct {
	RunID  string           `json:"run_id"`
	Status domain.RunStatus `json:"status"`
}

type runResponse struct {
	RunID       string           `json:"run_id"`
	GraphID     string           `json:"graph_id"`
	Status      domain.RunStatus `json:"status"`
	CurrentNode string           `json:"current_node,omitempty"`
	State       domain.State     `json:"state"`
	Log         []domain.Step    `json:"log"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

func runResponseFrom(run *domain.Run) runResponse {
	log := run.Log
	if log == nil {
		log = []domain.Step{}
	}
	return runResponse{
		RunID:       run.ID,
		GraphID:     run.GraphID,
		Status:      run.Status,
		CurrentNode: run.CurrentNode,
		State:       run.State,
		Log:         log,
		Error:       run.Error,
		CreatedAt:   run.CreatedAt,
	}
}
