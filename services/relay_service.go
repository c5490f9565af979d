package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime"
	"context"
)

// RelayService is the thin facade the transport layer talks to; it
// shields handlers from the concrete relay type.
type RelayService struct {
	relay *runtime.Relay
}

var _ contract.IRelay = (*RelayService)(nil)

func NewRelayService(relay *runtime.Relay) *RelayService {
	return &RelayService{relay: relay}
}

func (s *RelayService) Connect(ctx context.Context, sink contract.EventSink) (domain.Identity, error) {
	return s.relay.Connect(ctx, sink)
}

func (s *RelayService) Dispatch(ctx context.Context, cmd domain.Command) error {
	return s.relay.Dispatch(ctx, cmd)
}

func (s *RelayService) Disconnect(id domain.Identity) {
	s.relay.Disconnect(id)
}
