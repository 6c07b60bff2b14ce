// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/governance"
)

const apiVersion = "0.1.0"

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeGovernanceError maps engine errors onto HTTP statuses
func writeGovernanceError(w http.ResponseWriter, err error) {
	var execErr *governance.ActionExecutionError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, governance.ErrUnknownProposal):
		status = http.StatusNotFound
	case errors.Is(err, governance.ErrEmptyProposal),
		errors.Is(err, governance.ErrInvalidSupport),
		errors.Is(err, governance.ErrFutureTimepoint):
		status = http.StatusBadRequest
	case errors.Is(err, governance.ErrInsufficientWeight),
		errors.Is(err, governance.ErrNotProposer):
		status = http.StatusForbidden
	case errors.Is(err, governance.ErrDuplicateProposal),
		errors.Is(err, governance.ErrProposalNotActive),
		errors.Is(err, governance.ErrNotSucceeded),
		errors.Is(err, governance.ErrAlreadyVoted),
		errors.Is(err, governance.ErrAlreadyExecuted),
		errors.Is(err, governance.ErrAlreadyCanceled),
		errors.Is(err, governance.ErrNotCancelable),
		errors.Is(err, governance.ErrVotesAlreadyCast):
		status = http.StatusConflict
	case errors.As(err, &execErr):
		status = http.StatusUnprocessableEntity
	}
	writeError(w, status, err.Error())
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "mintgovernance",
		Version: apiVersion,
	})
}

// handleHealth handles GET /health
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handlePropose handles POST /api/v1/governance/proposals
func (a *Api) handlePropose(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	actions, err := actionsFromJSON(req.Actions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := a.node.Governor().Propose(
		r.Context(),
		req.Proposer,
		actions,
		req.Description,
	)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ProposeResponse{
		ProposalID: id.String(),
	})
}

// handleListProposals handles GET /api/v1/governance/proposals
func (a *Api) handleListProposals(
	w http.ResponseWriter,
	_ *http.Request,
) {
	proposals, err := a.node.Governor().Proposals()
	if err != nil {
		a.logger.Error(
			"failed to list proposals",
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to list proposals",
		)
		return
	}
	ret := make([]ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		resp, err := a.proposalResponse(p)
		if err != nil {
			writeGovernanceError(w, err)
			return
		}
		ret = append(ret, resp)
	}
	writeJSON(w, http.StatusOK, ret)
}

// handleGetProposal handles GET /api/v1/governance/proposals/{id}
func (a *Api) handleGetProposal(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := proposalIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	proposal, err := a.node.Governor().Proposal(id)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	resp, err := a.proposalResponse(proposal)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleProposalState handles GET /api/v1/governance/proposals/{id}/state
func (a *Api) handleProposalState(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := proposalIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := a.node.Governor().State(id)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		ProposalID: id.String(),
		State:      state.String(),
	})
}

// handleProposalVotes handles GET /api/v1/governance/proposals/{id}/votes
func (a *Api) handleProposalVotes(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := proposalIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tally, err := a.node.Governor().ProposalVotes(id)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TallyResponse{
		ProposalID:   id.String(),
		AgainstVotes: tally.AgainstVotes.String(),
		ForVotes:     tally.ForVotes.String(),
		AbstainVotes: tally.AbstainVotes.String(),
	})
}

// handleCastVote handles POST /api/v1/governance/proposals/{id}/votes
func (a *Api) handleCastVote(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := proposalIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	support, err := parseSupport(req.Support)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ballot, err := a.node.Governor().CastVote(
		r.Context(),
		id,
		req.Voter,
		support,
		req.Reason,
	)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, VoteResponse{
		ProposalID: id.String(),
		Voter:      ballot.Voter,
		Support:    ballot.Support.String(),
		Weight:     ballot.Weight.String(),
		Reason:     ballot.Reason,
		CastAt:     uint64(ballot.CastAt),
	})
}

// handleGetBallot handles GET /api/v1/governance/proposals/{id}/ballots/{voter}
func (a *Api) handleGetBallot(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := proposalIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	voter := r.PathValue("voter")
	ballot, err := a.node.Governor().GetBallot(id, voter)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	if ballot == nil {
		writeError(w, http.StatusNotFound, "no ballot recorded")
		return
	}
	writeJSON(w, http.StatusOK, VoteResponse{
		ProposalID: id.String(),
		Voter:      ballot.Voter,
		Support:    ballot.Support.String(),
		Weight:     ballot.Weight.String(),
		Reason:     ballot.Reason,
		CastAt:     uint64(ballot.CastAt),
	})
}

// handleCancel handles POST /api/v1/governance/proposals/{id}/cancel
func (a *Api) handleCancel(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := proposalIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := a.node.Governor().Cancel(r.Context(), id, req.Caller); err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{
		ProposalID: id.String(),
		State:      governance.StateCanceled.String(),
	})
}

// handleExecute handles POST /api/v1/governance/execute
func (a *Api) handleExecute(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	descriptionHash, err := governance.HashFromHex(req.DescriptionHash)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid description hash")
		return
	}
	actions, err := actionsFromJSON(req.Actions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := a.node.Governor().Execute(
		r.Context(),
		actions,
		descriptionHash,
	)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ProposeResponse{
		ProposalID: id.String(),
	})
}

// handleQuorum handles GET /api/v1/governance/quorum with an optional
// timepoint query parameter, defaulting to the current timepoint
func (a *Api) handleQuorum(
	w http.ResponseWriter,
	r *http.Request,
) {
	tp := a.node.CurrentTimepoint()
	if arg := r.URL.Query().Get("timepoint"); arg != "" {
		parsed, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid timepoint")
			return
		}
		tp = clock.Timepoint(parsed)
	}
	quorum, err := a.node.Governor().Quorum(tp)
	if err != nil {
		writeGovernanceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuorumResponse{
		Quorum:    quorum.String(),
		Timepoint: uint64(tp),
	})
}

// handleConfig handles GET /api/v1/governance/config
func (a *Api) handleConfig(
	w http.ResponseWriter,
	_ *http.Request,
) {
	cfg := a.node.Governor().Config()
	writeJSON(w, http.StatusOK, ConfigResponse{
		ProposalThreshold:     cfg.ProposalThreshold.String(),
		Canceler:              cfg.Canceler,
		VotingDelay:           cfg.VotingDelay,
		VotingPeriod:          cfg.VotingPeriod,
		QuorumFractionBps:     cfg.QuorumFractionBps,
		AllowCancelAfterVotes: cfg.AllowCancelAfterVotes,
	})
}

func (a *Api) proposalResponse(
	p *governance.Proposal,
) (ProposalResponse, error) {
	state, err := a.node.Governor().State(p.ID)
	if err != nil {
		return ProposalResponse{}, err
	}
	return ProposalResponse{
		ProposalID:      p.ID.String(),
		Proposer:        p.Proposer,
		Description:     p.Description,
		DescriptionHash: p.DescriptionHash.String(),
		State:           state.String(),
		Actions:         actionsToJSON(p.Actions),
		Created:         uint64(p.Created),
		VoteStart:       uint64(p.VoteStart),
		VoteEnd:         uint64(p.VoteEnd),
	}, nil
}

func proposalIDFromPath(r *http.Request) (governance.ProposalID, error) {
	id, err := governance.HashFromHex(r.PathValue("id"))
	if err != nil {
		return governance.ProposalID{}, fmt.Errorf(
			"invalid proposal ID: %w",
			err,
		)
	}
	return id, nil
}

func parseSupport(s string) (governance.Support, error) {
	switch s {
	case "against":
		return governance.SupportAgainst, nil
	case "for":
		return governance.SupportFor, nil
	case "abstain":
		return governance.SupportAbstain, nil
	default:
		return 0, fmt.Errorf("invalid support value %q", s)
	}
}

func actionsFromJSON(items []ActionJSON) ([]governance.Action, error) {
	ret := make([]governance.Action, len(items))
	for i, item := range items {
		value := new(big.Int)
		if item.Value != "" {
			parsed, ok := new(big.Int).SetString(item.Value, 10)
			if !ok {
				return nil, fmt.Errorf(
					"invalid action value %q",
					item.Value,
				)
			}
			value = parsed
		}
		ret[i] = governance.Action{
			Target:   item.Target,
			Value:    value,
			Calldata: item.Calldata,
		}
	}
	return ret, nil
}

func actionsToJSON(actions []governance.Action) []ActionJSON {
	ret := make([]ActionJSON, len(actions))
	for i, action := range actions {
		value := ""
		if action.Value != nil {
			value = action.Value.String()
		}
		ret[i] = ActionJSON{
			Target:   action.Target,
			Value:    value,
			Calldata: action.Calldata,
		}
	}
	return ret
}
