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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/governance"
	"github.com/UMainLove/MintGovernance/governance/store"
	"github.com/UMainLove/MintGovernance/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNode implements GovernanceNode over a real engine assembly
type testNode struct {
	governor *governance.Governor
	clock    *clock.Manual
}

func (n *testNode) Governor() *governance.Governor {
	return n.governor
}

func (n *testNode) CurrentTimepoint() clock.Timepoint {
	return n.clock.Now()
}

type noopExecutor struct{}

func (noopExecutor) Validate(context.Context, governance.Action) error {
	return nil
}

func (noopExecutor) Apply(context.Context, []governance.Action) error {
	return nil
}

func newTestApi(t *testing.T) (*Api, *testNode) {
	t.Helper()
	manualClock := clock.NewManual(0)
	ledger, err := token.NewLedger(
		token.LedgerConfig{Clock: manualClock},
	)
	require.NoError(t, err)
	require.NoError(t, ledger.Mint("alice", big.NewInt(10_000)))
	g, err := governance.NewGovernor(
		governance.GovernorConfig{
			Clock:    manualClock,
			Oracle:   ledger,
			Store:    store.NewMemory(),
			Executor: noopExecutor{},
			Governance: governance.Config{
				ProposalThreshold: big.NewInt(1),
				VotingDelay:       10,
				VotingPeriod:      100,
				QuorumFractionBps: 400,
			},
		},
	)
	require.NoError(t, err)
	node := &testNode{governor: g, clock: manualClock}
	a := New(
		ApiConfig{ListenAddress: ":0"},
		node,
		nil,
	)
	return a, node
}

func doRequest(
	t *testing.T,
	a *Api,
	method string,
	path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reqBody)
	w := httptest.NewRecorder()
	a.buildMux().ServeHTTP(w, req)
	return w
}

func proposeTestProposal(t *testing.T, a *Api) string {
	t.Helper()
	w := doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/governance/proposals",
		ProposeRequest{
			Proposer:    "alice",
			Description: "mint to treasury",
			Actions: []ActionJSON{
				{
					Target:   "token.mint",
					Calldata: []byte(`{"to":"treasury","amount":"100"}`),
				},
			},
		},
	)
	require.Equal(t, http.StatusCreated, w.Code)
	var resp ProposeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ProposalID)
	return resp.ProposalID
}

func TestHandleRoot(t *testing.T) {
	a, _ := newTestApi(t)
	w := doRequest(t, a, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp RootResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mintgovernance", resp.Name)
}

func TestProposeAndGet(t *testing.T) {
	a, _ := newTestApi(t)
	id := proposeTestProposal(t, a)

	w := doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/proposals/"+id,
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ProposalID)
	assert.Equal(t, "alice", resp.Proposer)
	assert.Equal(t, "Pending", resp.State)
	assert.Equal(t, uint64(10), resp.VoteStart)
	assert.Equal(t, uint64(110), resp.VoteEnd)
	require.Len(t, resp.Actions, 1)
	assert.Equal(t, "token.mint", resp.Actions[0].Target)

	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/proposals",
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var list []ProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestProposeErrors(t *testing.T) {
	a, _ := newTestApi(t)

	// No actions
	w := doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/governance/proposals",
		ProposeRequest{Proposer: "alice", Description: "empty"},
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Proposer with no weight
	w = doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/governance/proposals",
		ProposeRequest{
			Proposer:    "dave",
			Description: "no weight",
			Actions:     []ActionJSON{{Target: "token.mint"}},
		},
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Duplicate
	proposeTestProposal(t, a)
	w = doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/governance/proposals",
		ProposeRequest{
			Proposer:    "alice",
			Description: "mint to treasury",
			Actions: []ActionJSON{
				{
					Target:   "token.mint",
					Calldata: []byte(`{"to":"treasury","amount":"100"}`),
				},
			},
		},
	)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestVoteFlow(t *testing.T) {
	a, node := newTestApi(t)
	id := proposeTestProposal(t, a)

	// Voting before the window opens
	w := doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/votes", id),
		VoteRequest{Voter: "alice", Support: "for"},
	)
	assert.Equal(t, http.StatusConflict, w.Code)

	node.clock.Set(15)
	w = doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/votes", id),
		VoteRequest{Voter: "alice", Support: "for", Reason: "ship it"},
	)
	require.Equal(t, http.StatusCreated, w.Code)
	var voteResp VoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &voteResp))
	assert.Equal(t, "10000", voteResp.Weight)
	assert.Equal(t, "For", voteResp.Support)

	// Invalid support string
	w = doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/votes", id),
		VoteRequest{Voter: "bob", Support: "maybe"},
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Tally
	w = doRequest(
		t,
		a,
		http.MethodGet,
		fmt.Sprintf("/api/v1/governance/proposals/%s/votes", id),
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var tally TallyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	assert.Equal(t, "10000", tally.ForVotes)
	assert.Equal(t, "0", tally.AgainstVotes)

	// Stored ballot
	w = doRequest(
		t,
		a,
		http.MethodGet,
		fmt.Sprintf("/api/v1/governance/proposals/%s/ballots/alice", id),
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(
		t,
		a,
		http.MethodGet,
		fmt.Sprintf("/api/v1/governance/proposals/%s/ballots/carol", id),
		nil,
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// State after the window closes
	node.clock.Set(200)
	w = doRequest(
		t,
		a,
		http.MethodGet,
		fmt.Sprintf("/api/v1/governance/proposals/%s/state", id),
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var stateResp StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stateResp))
	assert.Equal(t, "Succeeded", stateResp.State)
}

func TestExecuteAndCancel(t *testing.T) {
	a, node := newTestApi(t)
	id := proposeTestProposal(t, a)

	node.clock.Set(15)
	w := doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/votes", id),
		VoteRequest{Voter: "alice", Support: "for"},
	)
	require.Equal(t, http.StatusCreated, w.Code)

	node.clock.Set(200)
	descriptionHash := governance.HashDescription("mint to treasury")
	executeReq := ExecuteRequest{
		DescriptionHash: descriptionHash.String(),
		Actions: []ActionJSON{
			{
				Target:   "token.mint",
				Calldata: []byte(`{"to":"treasury","amount":"100"}`),
			},
		},
	}
	w = doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/governance/execute",
		executeReq,
	)
	require.Equal(t, http.StatusOK, w.Code)

	// Executing again conflicts
	w = doRequest(
		t,
		a,
		http.MethodPost,
		"/api/v1/governance/execute",
		executeReq,
	)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Executed proposals cannot be canceled
	w = doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/cancel", id),
		CancelRequest{Caller: "alice"},
	)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancel(t *testing.T) {
	a, _ := newTestApi(t)
	id := proposeTestProposal(t, a)

	// Only the proposer may cancel
	w := doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/cancel", id),
		CancelRequest{Caller: "bob"},
	)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(
		t,
		a,
		http.MethodPost,
		fmt.Sprintf("/api/v1/governance/proposals/%s/cancel", id),
		CancelRequest{Caller: "alice"},
	)
	require.Equal(t, http.StatusOK, w.Code)
	var resp StateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Canceled", resp.State)
}

func TestQuorumAndConfig(t *testing.T) {
	a, node := newTestApi(t)
	node.clock.Set(5)

	w := doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/quorum",
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var quorumResp QuorumResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quorumResp))
	assert.Equal(t, "400", quorumResp.Quorum)
	assert.Equal(t, uint64(5), quorumResp.Timepoint)

	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/quorum?timepoint=0",
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)

	// Future timepoints have no settled supply
	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/quorum?timepoint=99",
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/config",
		nil,
	)
	require.Equal(t, http.StatusOK, w.Code)
	var cfgResp ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cfgResp))
	assert.Equal(t, uint64(10), cfgResp.VotingDelay)
	assert.Equal(t, uint64(100), cfgResp.VotingPeriod)
	assert.Equal(t, uint64(400), cfgResp.QuorumFractionBps)
	assert.Equal(t, "1", cfgResp.ProposalThreshold)
}

func TestUnknownProposal(t *testing.T) {
	a, _ := newTestApi(t)
	missing := governance.HashDescription("missing").String()

	w := doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/proposals/"+missing,
		nil,
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(
		t,
		a,
		http.MethodGet,
		"/api/v1/governance/proposals/nothex/state",
		nil,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartStop(t *testing.T) {
	a, _ := newTestApi(t)

	err := a.Start(t.Context())
	require.NoError(t, err)

	// Verify server is running
	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	err = a.Stop(stopCtx)
	require.NoError(t, err)

	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}
