// Copyright 2025 Blink Labs Software
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

package event

// Delegation event types. Addresses are carried in their bech32 text form and
// applications by numeric ID
const (
	VoterPreparedEventType              EventType = "delegation.voter.prepared"
	VoterRegisteredEventType            EventType = "delegation.voter.registered"
	VoterUnregisteredEventType          EventType = "delegation.voter.unregistered"
	VotesAddedEventType                 EventType = "delegation.votes.added"
	VoteTriggeredEventType              EventType = "delegation.vote.triggered"
	RepresentativeRegisteredEventType   EventType = "delegation.representative.registered"
	RepresentativeUnregisteredEventType EventType = "delegation.representative.unregistered"
	RegistryConfiguredEventType         EventType = "delegation.registry.configured"
	RegistryPauseEventType              EventType = "delegation.registry.pause"
	VotePublishedEventType              EventType = "delegation.representative.vote_published"
	VoteDeletedEventType                EventType = "delegation.representative.vote_deleted"
	VoteCastEventType                   EventType = "delegation.voter.vote_cast"
	CallCompletedEventType              EventType = "ledger.call.completed"
)

type VoterPreparedEvent struct {
	RegistryAppId uint64
	VoterAppId    uint64
}

type VoterRegisteredEvent struct {
	RegistryAppId uint64
	VoterAppId    uint64
	Delegator     string
	Manager       string
}

type VoterUnregisteredEvent struct {
	RegistryAppId uint64
	VoterAppId    uint64
	Delegator     string
	VotesReleased uint64
	Refund        uint64
}

type VotesAddedEvent struct {
	RegistryAppId uint64
	Delegator     string
	Payer         string
	Count         uint64
	Fee           uint64
	VotesLeft     uint64
}

type VoteTriggeredEvent struct {
	RegistryAppId uint64
	Delegator     string
	ProposalAppId uint64
	Caller        string
	Award         uint64
}

type RepresentativeEvent struct {
	RegistryAppId       uint64
	RepresentativeAppId uint64
	Representative      string
}

type RegistryConfiguredEvent struct {
	RegistryAppId     uint64
	VoteFeeXgov       uint64
	VoteFeeOther      uint64
	RepresentativeFee uint64
	VoteTriggerAward  uint64
	TriggerFund       uint64
}

type RegistryPauseEvent struct {
	RegistryAppId uint64
	Paused        bool
}

type RepresentativeVoteEvent struct {
	RepresentativeAppId uint64
	ProposalAppId       uint64
	ApprovalPPM         uint64
	RejectionPPM        uint64
}

// VoteCastEvent is emitted by a voter when the xGov registry accepts its vote. RepresentativeAppId
// is zero for direct votes
type VoteCastEvent struct {
	Round               uint64
	ProposalAppId       uint64
	Delegator           string
	Approvals           uint64
	Rejections          uint64
	RepresentativeAppId uint64
}

type CallCompletedEvent struct {
	Round   uint64
	AppId   uint64
	Method  string
	Sender  string
	Success bool
	Error   string
}
