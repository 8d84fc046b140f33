package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/util/actorutil"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

// DeviceActor serializes access to the device HTTP transport. Requests run as
// background tasks with a timeout; while one is in flight every other message
// is stashed so the device never sees concurrent requests.
type DeviceActor struct {
	behavior  actor.Behavior
	stash     *actorutil.Stash
	transport pranadev.Transport
	timeout   time.Duration
	logger    *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewDeviceActor(transport pranadev.Transport, timeout time.Duration, log *zap.Logger) *DeviceActor {
	act := &DeviceActor{
		transport: transport,
		timeout:   timeout,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger("device", log),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *DeviceActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DeviceActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("device@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICE,
			Healthy: true,
			State:   "idle",
		})
	case domain.FetchStateRequest:
		state.logger.Debug("device@default: FetchStateRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.fetchState),
			mapTaskResult[domain.FetchStateResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.FetchStateResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingDevice)
	case domain.SendCommandRequest:
		state.logger.Debug("device@default: SendCommandRequest",
			zap.String("control", msg.Request.Control))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		request := msg.Request

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.SendCommandResponse, error) {
			return state.sendCommand(request)
		}),
			mapTaskResult[domain.SendCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SendCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					Control: request.Control,
				},
				replyTo: sender,
			}
		}).WithTimeout(state.timeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingDevice)
	case domain.RebindTransportRequest:
		state.logger.Info("device@default: RebindTransportRequest",
			zap.String("address", msg.Address.String()))
		state.transport.Rebind(msg.Address)
		ctx.Respond(domain.RebindTransportResponse{})
	case *actor.Stopping:
		state.transport.Close()
	default:
		state.logger.Debug("device@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DeviceActor) WaitingDevice(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("device@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.transport.Close()
	default:
		state.logger.Debug("device@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *DeviceActor) fetchState() (*domain.FetchStateResponse, error) {
	raw, err := a.transport.FetchState()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	parsed := pranadev.StateFromRaw(raw, a.logger)
	return &domain.FetchStateResponse{
		State: &parsed,
	}, nil
}

func (a *DeviceActor) sendCommand(request *pranadev.TransportRequest) (*domain.SendCommandResponse, error) {
	err := request.Send(a.transport)
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.SendCommandResponse{
		Control: request.Control,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
