package memory

import (
	"context"
	"sync"

	"github.com/totegamma/dms/internal/domain"
)

// Publisher records published events per channel.
type Publisher struct {
	events map[string][]domain.WorkflowEvent
	mux    sync.Mutex
}

func NewPublisher() *Publisher {
	return &Publisher{events: map[string][]domain.WorkflowEvent{}}
}

func (p *Publisher) Publish(_ context.Context, channel string, event domain.WorkflowEvent) error {
	p.mux.Lock()
	defer p.mux.Unlock()

	p.events[channel] = append(p.events[channel], event)
	return nil
}

func (p *Publisher) Events(channel string) []domain.WorkflowEvent {
	p.mux.Lock()
	defer p.mux.Unlock()

	return append([]domain.WorkflowEvent{}, p.events[channel]...)
}
