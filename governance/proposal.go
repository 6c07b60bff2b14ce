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
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package governance

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// HashDescription returns the blake2b-256 digest of a proposal
// description
func HashDescription(description string) Hash {
	return blake2b.Sum256([]byte(description))
}

// ComputeProposalID derives the deterministic proposal identifier from
// the ordered action sequence and the description hash. Every field is
// length-prefixed before hashing so distinct action/description
// combinations cannot collide by concatenation.
func ComputeProposalID(actions []Action, descriptionHash Hash) ProposalID {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails with a non-nil key
		panic(err)
	}
	var lenBuf [8]byte
	writeChunk := func(data []byte) {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
		h.Write(lenBuf[:])
		h.Write(data)
	}
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(actions)))
	h.Write(lenBuf[:])
	for _, action := range actions {
		writeChunk([]byte(action.Target))
		if action.Value != nil {
			writeChunk(action.Value.Bytes())
		} else {
			writeChunk(nil)
		}
		writeChunk(action.Calldata)
	}
	h.Write(descriptionHash[:])
	var id ProposalID
	copy(id[:], h.Sum(nil))
	return id
}
