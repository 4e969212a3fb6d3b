package iot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/service"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSConsumer turns gate-terminal messages into entry and exit
// operations. A message is deleted from the queue only after it was
// handled; rejections the terminal cannot fix by retrying (bad plate,
// duplicate entry, full lot) are also deleted so they do not loop.
type SQSConsumer struct {
	sqsClient      *sqs.Client
	queueURL       string
	parkingService *service.ParkingService
}

func NewSQSConsumer(client *sqs.Client, queueURL string, parkingService *service.ParkingService) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:      client,
		queueURL:       queueURL,
		parkingService: parkingService,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("SQS consumer listening on queue: %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("SQS consumer: context cancelled, stopping")
			return
		default:
			result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			})
			if err != nil {
				log.Printf("SQS consumer: receive failed: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, message := range result.Messages {
				if message.Body == nil {
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}
				err := c.handleMessage(ctx, *message.Body)
				if err == nil || isPermanent(err) {
					if err != nil {
						log.Printf("SQS consumer: dropping message after permanent rejection: %v", err)
					}
					c.deleteMessage(ctx, message.ReceiptHandle)
				} else {
					log.Printf("SQS consumer: message %s failed, will retry after visibility timeout: %v",
						stringValue(message.MessageId), err)
				}
			}
		}
	}
}

func (c *SQSConsumer) handleMessage(ctx context.Context, body string) error {
	var msg domain.GateMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		// Malformed payloads never become valid; treat as permanent.
		log.Printf("SQS consumer: unparseable gate message: %v (body: %s)", err, body)
		return nil
	}

	switch msg.MessageType {
	case "vehicle_entry":
		ticket, err := c.parkingService.RegisterEntry(ctx, domain.VehicleEntryDTO{
			VehiclePlate: msg.VehiclePlate,
			VehicleClass: msg.VehicleClass,
			EntryTime:    msg.Timestamp,
		})
		if err != nil {
			return fmt.Errorf("gate %s entry for plate '%s': %w", msg.GateID, msg.VehiclePlate, err)
		}
		log.Printf("SQS consumer: admitted '%s' via gate %s (ticket %s)", msg.VehiclePlate, msg.GateID, ticket.TransactionNumber)
		return nil
	case "vehicle_exit":
		paymentMethod := msg.PaymentMethod
		if paymentMethod == "" {
			paymentMethod = "cash"
		}
		receipt, err := c.parkingService.ProcessExit(ctx, domain.VehicleExitDTO{
			Identifier:    msg.VehiclePlate,
			PaymentMethod: paymentMethod,
			ExitTime:      msg.Timestamp,
		})
		if err != nil {
			return fmt.Errorf("gate %s exit for plate '%s': %w", msg.GateID, msg.VehiclePlate, err)
		}
		log.Printf("SQS consumer: released '%s' via gate %s (fee %d)", msg.VehiclePlate, msg.GateID, receipt.Fee)
		return nil
	default:
		log.Printf("SQS consumer: ignoring message type '%s' from gate %s", msg.MessageType, msg.GateID)
		return nil
	}
}

// isPermanent reports whether retrying the same message can ever succeed.
func isPermanent(err error) bool {
	return errors.Is(err, service.ErrInvalidPlate) ||
		errors.Is(err, service.ErrInvalidVehicleClass) ||
		errors.Is(err, service.ErrInvalidExitTime) ||
		errors.Is(err, repository.ErrDuplicateActive) ||
		errors.Is(err, repository.ErrAlreadyClosed) ||
		errors.Is(err, repository.ErrNoCapacity) ||
		errors.Is(err, repository.ErrNotFound)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("SQS consumer: could not delete message: %v", err)
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
