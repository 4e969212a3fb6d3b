package iot

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/google/uuid"
)

type barrierCommand struct {
	Command   string `json:"command"`
	RequestID string `json:"request_id"`
	IssuedAt  string `json:"issued_at"`
}

// BarrierCommander publishes open commands to the gate barrier
// controllers over AWS IoT Core MQTT. It satisfies service.BarrierOpener.
type BarrierCommander struct {
	iotDataClient *iotdataplane.Client
	topicPrefix   string
}

func NewBarrierCommander(client *iotdataplane.Client, topicPrefix string) *BarrierCommander {
	return &BarrierCommander{iotDataClient: client, topicPrefix: topicPrefix}
}

// Open publishes an open command for the named gate ("entry" or "exit").
func (b *BarrierCommander) Open(ctx context.Context, gate string) error {
	if b.iotDataClient == nil {
		return fmt.Errorf("iot data client not configured")
	}

	payload, err := json.Marshal(barrierCommand{
		Command:   "open",
		RequestID: uuid.NewString(),
		IssuedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshalling barrier command: %w", err)
	}

	topic := fmt.Sprintf("%s/command/barriers/%s", b.topicPrefix, gate)
	_, err = b.iotDataClient.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	log.Printf("sent open command to %s barrier", gate)
	return nil
}
