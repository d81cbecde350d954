package commands

import (
	"encoding/json"
	"time"

	"launchpad/contexts/token-launch/campaign-ledger/ports"
)

const (
	EventCampaignCreated     = "campaign.created"
	EventDepositRecorded     = "campaign.deposit_recorded"
	EventPhaseChanged        = "campaign.phase_changed"
	EventAllocationsSet      = "campaign.allocations_set"
	EventTokensClaimed       = "campaign.tokens_claimed"
	EventRescueCompleted     = "campaign.rescue_completed"
	EventResidualSwept       = "campaign.residual_swept"
	EventFeeRecipientUpdated = "campaign.fee_recipient_updated"
	EventNativeWithdrawn     = "campaign.native_withdrawn"
)

func newCampaignEnvelope(
	eventID string,
	eventType string,
	campaignID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "campaign-ledger",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "campaign_id",
		PartitionKey:     campaignID,
		Data:             payload,
	}, nil
}
