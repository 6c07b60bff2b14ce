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

// RootResponse is the response for GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the error response format
type ErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// ActionJSON is the wire form of a proposal action. The value is a
// decimal string and the calldata is base64 encoded.
type ActionJSON struct {
	Target   string `json:"target"`
	Value    string `json:"value,omitempty"`
	Calldata []byte `json:"calldata,omitempty"`
}

// ProposeRequest is the request body for creating a proposal
type ProposeRequest struct {
	Proposer    string       `json:"proposer"`
	Description string       `json:"description"`
	Actions     []ActionJSON `json:"actions"`
}

// ProposeResponse is the response for a created proposal
type ProposeResponse struct {
	ProposalID string `json:"proposal_id"`
}

// ProposalResponse is the wire form of a stored proposal
type ProposalResponse struct {
	ProposalID      string       `json:"proposal_id"`
	Proposer        string       `json:"proposer"`
	Description     string       `json:"description"`
	DescriptionHash string       `json:"description_hash"`
	State           string       `json:"state"`
	Actions         []ActionJSON `json:"actions"`
	Created         uint64       `json:"created"`
	VoteStart       uint64       `json:"vote_start"`
	VoteEnd         uint64       `json:"vote_end"`
}

// StateResponse is the response for a proposal state query
type StateResponse struct {
	ProposalID string `json:"proposal_id"`
	State      string `json:"state"`
}

// VoteRequest is the request body for casting a vote. Support is one
// of "against", "for", or "abstain".
type VoteRequest struct {
	Voter   string `json:"voter"`
	Support string `json:"support"`
	Reason  string `json:"reason,omitempty"`
}

// VoteResponse is the response for a recorded ballot
type VoteResponse struct {
	ProposalID string `json:"proposal_id"`
	Voter      string `json:"voter"`
	Support    string `json:"support"`
	Weight     string `json:"weight"`
	Reason     string `json:"reason,omitempty"`
	CastAt     uint64 `json:"cast_at"`
}

// TallyResponse is the response for a proposal vote tally
type TallyResponse struct {
	ProposalID   string `json:"proposal_id"`
	AgainstVotes string `json:"against_votes"`
	ForVotes     string `json:"for_votes"`
	AbstainVotes string `json:"abstain_votes"`
}

// ExecuteRequest is the request body for executing a succeeded
// proposal. The description hash is hex encoded.
type ExecuteRequest struct {
	DescriptionHash string       `json:"description_hash"`
	Actions         []ActionJSON `json:"actions"`
}

// CancelRequest is the request body for canceling a proposal
type CancelRequest struct {
	Caller string `json:"caller"`
}

// QuorumResponse is the response for a quorum query
type QuorumResponse struct {
	Quorum    string `json:"quorum"`
	Timepoint uint64 `json:"timepoint"`
}

// ConfigResponse is the wire form of the governance parameters
type ConfigResponse struct {
	ProposalThreshold     string `json:"proposal_threshold"`
	Canceler              string `json:"canceler,omitempty"`
	VotingDelay           uint64 `json:"voting_delay"`
	VotingPeriod          uint64 `json:"voting_period"`
	QuorumFractionBps     uint64 `json:"quorum_fraction_bps"`
	AllowCancelAfterVotes bool   `json:"allow_cancel_after_votes"`
}
