package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/prana2mqtt/internal/config"
	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/core/events"
	. "github.com/berfenger/prana2mqtt/internal/util/actorutil"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// CoordinatorActor owns the cached device snapshot. It is the only writer:
// refreshes and confirmed commands mutate the cache from inside the actor,
// readers always get a deep copy. While a device request is in flight the
// actor parks in a stacked waiting state and stashes everything except
// snapshot reads and health checks.
type CoordinatorActor struct {
	ActorWithStates
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	deviceActor *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	logger      *zap.Logger

	cache        *pranadev.State
	degraded     bool
	failures     uint
	maxFailures  uint
	pollInterval time.Duration
	cancelTick   scheduler.CancelFunc
}

type pollTick struct {
}

func NewCoordinatorActor(config *config.Config, deviceActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *CoordinatorActor {
	maxFailures := config.Device.MaxPollFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	act := &CoordinatorActor{
		config:      config,
		deviceActor: deviceActor,
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_COORDINATOR, logger),
		eventStream: eventStream,
		maxFailures: maxFailures,
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(CoordUninitializedState{
		actor: act,
	})
	return act
}

func (state *CoordinatorActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Uninitialized state

type CoordUninitializedState struct {
	ActorState
	actor *CoordinatorActor
}

func (state CoordUninitializedState) Name() string {
	return "uninitialized"
}

func (state CoordUninitializedState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("coordinator@uninitialized started")
		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
	case domain.StartPollingRequest:
		state.actor.logger.Info("coordinator@uninitialized: start polling",
			zap.String("address", msg.Address.String()),
			zap.Duration("interval", msg.PollInterval))
		state.actor.pollInterval = msg.PollInterval
		if state.actor.pollInterval <= 0 {
			state.actor.pollInterval = state.actor.config.Device.PollInterval()
		}
		ctx.Send(state.actor.deviceActor, domain.RebindTransportRequest{Address: msg.Address})
		state.actor.cancelTick = state.actor.scheduler.SendRepeatedly(state.actor.pollInterval,
			state.actor.pollInterval, ctx.Self(), pollTick{})
		ForRequest(msg).Respond(ctx, domain.StartPollingResponse{})
		state.actor.Become(CoordPollingState{
			actor: state.actor,
		})
		// immediate first refresh
		ctx.Send(ctx.Self(), pollTick{})
	case domain.GetCachedStateRequest:
		ForRequest(msg).Respond(ctx, domain.GetCachedStateResponse{
			ActorResponseMixIn: notStartedError(),
		})
	case domain.ApplyCommandRequest:
		ForRequest(msg).Respond(ctx, domain.ApplyCommandResponse{
			ActorResponseMixIn: notStartedError(),
		})
	case domain.ForceRefreshRequest:
		ForRequest(msg).Respond(ctx, domain.ForceRefreshResponse{
			ActorResponseMixIn: notStartedError(),
		})
	case domain.StopPollingRequest:
		ForRequest(msg).Respond(ctx, domain.StopPollingResponse{
			ActorResponseMixIn: notStartedError(),
		})
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_COORDINATOR,
			Healthy: true,
			State:   state.Name(),
		})
	default:
		state.actor.logger.Debug("coordinator@uninitialized: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Polling state

type CoordPollingState struct {
	ActorState
	actor *CoordinatorActor
}

func (state CoordPollingState) Name() string {
	if state.actor.degraded {
		return "degraded"
	}
	return "polling"
}

func (state CoordPollingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case pollTick:
		state.actor.logger.Debug("coordinator@polling pollTick")
		state.actor.startRefresh(ctx, nil)
	case domain.ForceRefreshRequest:
		state.actor.logger.Debug("coordinator@polling ForceRefreshRequest")
		state.actor.startRefresh(ctx, ForRequest(msg).ReplyTo(ctx))
	case domain.ApplyCommandRequest:
		state.actor.logger.Debug("coordinator@polling ApplyCommandRequest",
			zap.String("type", fmt.Sprintf("%T", msg.Intent)))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		request, err := pranadev.Translate(msg.Intent)
		if err != nil {
			// invalid command, never reaches the device
			ForRequest(msg).Respond(ctx, domain.ApplyCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			})
			return
		}
		state.actor.startCommand(ctx, request, replyTo)
	case domain.GetCachedStateRequest:
		state.actor.respondCachedState(ctx, msg)
	case domain.StartPollingRequest:
		state.actor.logger.Debug("coordinator@polling StartPollingRequest: already running")
		ForRequest(msg).Respond(ctx, domain.StartPollingResponse{AlreadyRunning: true})
	case domain.StopPollingRequest:
		state.actor.logger.Info("coordinator@polling: stop polling")
		state.actor.stopTick()
		ForRequest(msg).Respond(ctx, domain.StopPollingResponse{})
		state.actor.Become(CoordTerminatedState{
			actor: state.actor,
		})
	case domain.DeviceAddressChanged:
		// re-bind transport, cached snapshot and failure counters survive
		state.actor.logger.Info("coordinator@polling: device address changed",
			zap.String("address", msg.Address.String()))
		ctx.Send(state.actor.deviceActor, domain.RebindTransportRequest{Address: msg.Address})
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_COORDINATOR,
			Healthy: !state.actor.degraded,
			State:   state.Name(),
		})
	case *actor.Stopping:
		state.actor.stopTick()
	default:
		state.actor.logger.Debug("coordinator@polling: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Waiting refresh state

type CoordWaitingRefreshState struct {
	ActorState
	actor   *CoordinatorActor
	replyTo *actor.PID
}

func (state CoordWaitingRefreshState) Name() string {
	return "waitingRefresh"
}

func (state CoordWaitingRefreshState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.FetchStateResponse:
		if msg.HasResponseError() {
			state.actor.onRefreshFailure(msg.GetResponseError())
			if state.replyTo != nil {
				ctx.Send(state.replyTo, domain.ForceRefreshResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: msg.GetResponseError(),
					},
				})
			}
		} else {
			state.actor.onRefreshSuccess(msg.State)
			if state.replyTo != nil {
				ctx.Send(state.replyTo, domain.ForceRefreshResponse{
					State: state.actor.snapshot(),
				})
			}
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case domain.GetCachedStateRequest:
		// snapshot reads never wait for the device
		state.actor.respondCachedState(ctx, msg)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_COORDINATOR,
			Healthy: !state.actor.degraded,
			State:   state.Name(),
		})
	default:
		state.actor.logger.Debug("coordinator@waitingRefresh: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting command state

type CoordWaitingCommandState struct {
	ActorState
	actor   *CoordinatorActor
	request *pranadev.TransportRequest
	replyTo *actor.PID
}

func (state CoordWaitingCommandState) Name() string {
	return "waitingCommand"
}

func (state CoordWaitingCommandState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.SendCommandResponse:
		if msg.HasResponseError() {
			// cache untouched on failed commands
			state.actor.logger.Warn("coordinator@waitingCommand: command failed",
				zap.String("control", state.request.Control),
				zap.Error(msg.GetResponseError()))
			if state.replyTo != nil {
				ctx.Send(state.replyTo, domain.ApplyCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: msg.GetResponseError(),
					},
				})
			}
		} else {
			state.actor.applyOptimistic(state.request)
			if state.replyTo != nil {
				ctx.Send(state.replyTo, domain.ApplyCommandResponse{
					State: state.actor.snapshot(),
				})
			}
		}
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case domain.GetCachedStateRequest:
		state.actor.respondCachedState(ctx, msg)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_COORDINATOR,
			Healthy: !state.actor.degraded,
			State:   state.Name(),
		})
	default:
		state.actor.logger.Debug("coordinator@waitingCommand: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Terminated state

type CoordTerminatedState struct {
	ActorState
	actor *CoordinatorActor
}

func (state CoordTerminatedState) Name() string {
	return "terminated"
}

func (state CoordTerminatedState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetCachedStateRequest:
		// last snapshot outlives the polling loop
		state.actor.respondCachedState(ctx, msg)
	case domain.ApplyCommandRequest:
		ForRequest(msg).Respond(ctx, domain.ApplyCommandResponse{
			ActorResponseMixIn: stoppedError(),
		})
	case domain.ForceRefreshRequest:
		ForRequest(msg).Respond(ctx, domain.ForceRefreshResponse{
			ActorResponseMixIn: stoppedError(),
		})
	case domain.StartPollingRequest:
		ForRequest(msg).Respond(ctx, domain.StartPollingResponse{
			ActorResponseMixIn: stoppedError(),
		})
	case domain.StopPollingRequest:
		ForRequest(msg).Respond(ctx, domain.StopPollingResponse{})
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_COORDINATOR,
			Healthy: false,
			State:   state.Name(),
		})
	case *actor.Stopping:
		state.actor.stopTick()
	default:
		state.actor.logger.Debug("coordinator@terminated: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Other actor function helpers

func (state *CoordinatorActor) startRefresh(ctx actor.Context, replyTo *actor.PID) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.deviceActor, domain.FetchStateRequest{},
		state.requestTimeout()), func(err error) any {
		return domain.FetchStateResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
	state.BecomeStacked(CoordWaitingRefreshState{
		actor:   state,
		replyTo: replyTo,
	})
}

func (state *CoordinatorActor) startCommand(ctx actor.Context, request *pranadev.TransportRequest, replyTo *actor.PID) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.deviceActor, domain.SendCommandRequest{Request: request},
		state.requestTimeout()), func(err error) any {
		return domain.SendCommandResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Control: request.Control,
		}
	})
	state.BecomeStacked(CoordWaitingCommandState{
		actor:   state,
		request: request,
		replyTo: replyTo,
	})
}

func (state *CoordinatorActor) onRefreshSuccess(fresh *pranadev.State) {
	updates := events.StateToUpdateEvents(state.cache, fresh)
	state.cache = fresh
	state.failures = 0
	if state.degraded {
		state.logger.Info("coordinator: device recovered")
		state.degraded = false
		state.eventStream.Publish(domain.BridgeStateUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: events.SENSOR_ID_BRIDGE_STATE},
			Value:                  true,
		})
	}
	for _, ev := range updates {
		state.eventStream.Publish(ev)
	}
}

func (state *CoordinatorActor) onRefreshFailure(err error) {
	state.failures++
	state.logger.Warn("coordinator: refresh failed",
		zap.Uint("failures", state.failures),
		zap.Error(err))
	if state.failures >= state.maxFailures && !state.degraded {
		state.logger.Error("coordinator: entering degraded mode", zap.Uint("failures", state.failures))
		state.degraded = true
		state.eventStream.Publish(domain.BridgeStateUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: events.SENSOR_ID_BRIDGE_STATE},
			Value:                  false,
		})
	}
}

func (state *CoordinatorActor) applyOptimistic(request *pranadev.TransportRequest) {
	if state.cache == nil {
		// no snapshot yet, nothing to patch. next refresh brings the truth
		return
	}
	next := state.cache.Clone()
	request.Apply(&next)
	updates := events.StateToUpdateEvents(state.cache, &next)
	state.cache = &next
	for _, ev := range updates {
		state.eventStream.Publish(ev)
	}
}

func (state *CoordinatorActor) respondCachedState(ctx actor.Context, msg domain.GetCachedStateRequest) {
	if state.cache == nil {
		ForRequest(msg).Respond(ctx, domain.GetCachedStateResponse{
			ActorResponseMixIn: notStartedError(),
			Degraded:           state.degraded,
		})
		return
	}
	ForRequest(msg).Respond(ctx, domain.GetCachedStateResponse{
		State:    state.snapshot(),
		Degraded: state.degraded,
	})
}

func (state *CoordinatorActor) snapshot() *pranadev.State {
	if state.cache == nil {
		return nil
	}
	copy := state.cache.Clone()
	return &copy
}

func (state *CoordinatorActor) stopTick() {
	if state.cancelTick != nil {
		state.cancelTick()
		state.cancelTick = nil
	}
}

func (state *CoordinatorActor) requestTimeout() time.Duration {
	return state.config.Device.RequestTimeout() + 2*time.Second
}

func notStartedError() domain.ActorResponseMixIn {
	return domain.ActorResponseMixIn{
		ResponseError: &domain.LifecycleError{Kind: domain.LifecycleNotStarted},
	}
}

func stoppedError() domain.ActorResponseMixIn {
	return domain.ActorResponseMixIn{
		ResponseError: &domain.LifecycleError{Kind: domain.LifecycleStopped},
	}
}
