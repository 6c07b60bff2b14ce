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
	"github.com/UMainLove/MintGovernance/clock"
	"github.com/UMainLove/MintGovernance/governance"
)

// GovernanceNode is the view of the node the API server uses. This
// decouples the HTTP server from the concrete Node struct and enables
// testing with lightweight assemblies.
type GovernanceNode interface {
	// Governor returns the governance engine
	Governor() *governance.Governor

	// CurrentTimepoint returns the node's current timepoint
	CurrentTimepoint() clock.Timepoint
}
