// FILE: internal/service/optimizer_service.go
// PURPOSE: Enqueue async engine maintenance jobs over watermill

package service

import (
	"context"
	"encoding/json"

	"ai-kindergarten-be/internal/dto"
	"ai-kindergarten-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IOptimizerService interface {
	Enqueue(ctx context.Context, jobType string) (*dto.OptimizeResponse, error)
}

type optimizerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	logger    logger.ILogger
}

func NewOptimizerService(pubSub *gochannel.GoChannel, topicName string, log logger.ILogger) IOptimizerService {
	return &optimizerService{
		pubSub:    pubSub,
		topicName: topicName,
		logger:    log,
	}
}

func (s *optimizerService) Enqueue(ctx context.Context, jobType string) (*dto.OptimizeResponse, error) {
	payload := dto.PublishOptimizeMessage{
		JobId: uuid.New().String(),
		Type:  jobType,
	}

	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(watermill.NewUUID(), payloadJson)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		s.logger.Error("Optimizer", "Failed to publish optimize job", map[string]interface{}{
			"job_id": payload.JobId,
			"type":   jobType,
			"error":  err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Optimizer", "Optimize job enqueued", map[string]interface{}{
		"job_id": payload.JobId,
		"type":   jobType,
	})

	return &dto.OptimizeResponse{
		JobId:  payload.JobId,
		Type:   jobType,
		Status: "queued",
	}, nil
}
