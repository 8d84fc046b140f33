package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

type ActorWithStates struct {
	Behavior actor.Behavior
}

// ActorState is a named behavior. The name shows up in health check
// responses so operators can see what an actor is doing.
type ActorState interface {
	Name() string
	Receive(actor.Context)
}

func (s *ActorWithStates) Become(state ActorState) {
	s.Behavior.Become(state.Receive)
}

func (s *ActorWithStates) BecomeStacked(state ActorState) {
	s.Behavior.BecomeStacked(state.Receive)
}

func (s *ActorWithStates) UnbecomeStacked() {
	s.Behavior.UnbecomeStacked()
}
