package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tourdesk/agent-commissions/pkg/models"
)

type stubSQS struct {
	sent []*sqs.SendMessageInput
	err  error
}

func (s *stubSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestEnqueueBooking(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		stub := &stubSQS{}
		s := NewSQSScheduler(stub, "https://sqs.test/queue")

		err := s.EnqueueBooking(context.Background(), &models.Booking{
			BookingID:     "booking-1",
			PayingAgentID: "leaf",
			PricePerHead:  600000,
		})
		require.NoError(t, err)
		require.Len(t, stub.sent, 1)
		assert.Equal(t, "https://sqs.test/queue", *stub.sent[0].QueueUrl)

		var booking models.Booking
		require.NoError(t, json.Unmarshal([]byte(*stub.sent[0].MessageBody), &booking))
		assert.Equal(t, "booking-1", booking.BookingID)
		assert.Equal(t, int64(600000), booking.PricePerHead)
	})

	t.Run("Send Fails", func(t *testing.T) {
		stub := &stubSQS{err: errors.New("throttled")}
		s := NewSQSScheduler(stub, "https://sqs.test/queue")

		err := s.EnqueueBooking(context.Background(), &models.Booking{BookingID: "booking-1"})
		assert.Error(t, err)
	})
}
