// FILE: internal/service/consumer_service.go
// PURPOSE: Worker for async engine maintenance jobs (cache, index, keywords)

package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"ai-kindergarten-be/internal/dto"
	"ai-kindergarten-be/pkg/ai/contextasm"
	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/keyword"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/vectorindex"
	"ai-kindergarten-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	keywords  *keyword.Provider
	directSvc *direct.Service
	semantics *semantic.Engine
	assembler *contextasm.Assembler
	index     *vectorindex.Index
	ops       OpsPublisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	keywords *keyword.Provider,
	directSvc *direct.Service,
	semantics *semantic.Engine,
	assembler *contextasm.Assembler,
	index *vectorindex.Index,
	ops OpsPublisher,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		keywords:  keywords,
		directSvc: directSvc,
		semantics: semantics,
		assembler: assembler,
		index:     index,
		ops:       ops,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishOptimizeMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal optimize job: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing optimize job %s (type: %s)", payload.JobId, payload.Type)

	switch payload.Type {
	case "cache":
		cs.flushCaches(ctx, payload.JobId)
		msg.Ack()
	case "index":
		if cs.rebuildIndex(ctx, payload.JobId) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	case "keywords":
		if cs.reloadKeywords(ctx, payload.JobId) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	case "all":
		cs.flushCaches(ctx, payload.JobId)
		indexOk := cs.rebuildIndex(ctx, payload.JobId)
		keywordsOk := cs.reloadKeywords(ctx, payload.JobId)
		if indexOk && keywordsOk {
			msg.Ack()
		} else {
			msg.Nack()
		}
	default:
		log.Printf("[ERROR] Unknown optimize job type %q, dropping job %s", payload.Type, payload.JobId)
		msg.Ack()
	}
}

func (cs *consumerService) flushCaches(ctx context.Context, jobId string) {
	cs.semantics.Purge(ctx)
	cs.assembler.Purge()
	cs.directSvc.Purge()
	log.Printf("[SUCCESS] Caches flushed for job %s", jobId)
	cs.publishEvent(ctx, events.NewCacheFlushed("all"))
}

// rebuildIndex reports whether the message should be acked. A rebuild
// already running elsewhere is not a failure of this job; the index is
// being refreshed either way.
func (cs *consumerService) rebuildIndex(ctx context.Context, jobId string) bool {
	err := cs.index.Rebuild(ctx)
	if errors.Is(err, vectorindex.ErrRebuildInProgress) {
		log.Printf("[WARN] Rebuild already in progress, skipping job %s", jobId)
		return true
	}
	if err != nil {
		log.Printf("[ERROR] Index rebuild failed for job %s: %v", jobId, err)
		cs.publishEvent(ctx, events.NewIndexRebuildFailed(err.Error()))
		return false
	}

	snap := cs.index.Current()
	if snap != nil {
		log.Printf("[SUCCESS] Index rebuilt for job %s: snapshot %s, %d items", jobId, snap.ID, snap.TotalItems)
		cs.publishEvent(ctx, events.NewIndexRebuilt(snap.ID, snap.TotalItems, snap.BuildDuration))
	}
	return true
}

func (cs *consumerService) reloadKeywords(ctx context.Context, jobId string) bool {
	if err := cs.keywords.Reload(); err != nil {
		log.Printf("[ERROR] Keyword reload failed for job %s: %v", jobId, err)
		return false
	}

	// Direct templates derive from the dictionary, refresh them too.
	cs.directSvc.Purge()

	directCount := 0
	if d, ok := cs.keywords.Current(); ok {
		_, _, _, directCount = d.Counts()
	}
	log.Printf("[SUCCESS] Keywords reloaded for job %s: %d direct matches", jobId, directCount)
	cs.publishEvent(ctx, events.NewKeywordsReloaded(directCount))
	return true
}

func (cs *consumerService) publishEvent(ctx context.Context, event events.Event) {
	if cs.ops == nil {
		return
	}
	if err := cs.ops.Publish(ctx, event); err != nil {
		log.Printf("[ERROR] Failed to publish ops event %s: %v", event.EventType(), err)
	}
}
