package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/prana2mqtt/internal/config"
	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/core/events"
	"github.com/berfenger/prana2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const snapshotRetryInterval = 2 * time.Second

// HADiscoveryActor publishes Home Assistant discovery configs once, after the
// first device snapshot is available. Entities for absent sensors are never
// announced.
type HADiscoveryActor struct {
	config                  *config.Config
	behavior                actor.Behavior
	stash                   *actorutil.Stash
	scheduler               *scheduler.TimerScheduler
	coordinatorActor        *actor.PID
	mqttActor               *actor.PID
	coordinatorActorHealthy bool
	mqttActorHealthy        bool
	healthyRecv             int

	logger *zap.Logger
}

type snapshotRetryTick struct {
}

func NewHADiscoveryActor(config *config.Config, coordinatorActor *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:           config,
		coordinatorActor: coordinatorActor,
		mqttActor:        mqttActor,
		behavior:         actor.NewBehavior(),
		stash:            &actorutil.Stash{},
		logger:           actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		state.scheduler = scheduler.NewTimerScheduler(ctx)

		// Check coordinator and MQTT actor healthy
		state.healthyRecv = 0
		state.coordinatorActorHealthy = false
		state.mqttActorHealthy = false
		// Coordinator Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.coordinatorActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_COORDINATOR,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_COORDINATOR:
				state.coordinatorActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {

			if state.coordinatorActorHealthy && state.mqttActorHealthy {
				state.requestSnapshot(ctx)
				state.behavior.Become(state.WaitingSnapshotReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or Coordinator Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingSnapshotReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetCachedStateResponse:
		if msg.HasResponseError() || msg.State == nil {
			// first refresh not done yet, retry later
			state.logger.Debug("hadiscovery@snapshot: snapshot not ready, retrying")
			state.scheduler.RequestOnce(snapshotRetryInterval, ctx.Self(), snapshotRetryTick{})
			return
		}
		state.logger.Debug("hadiscovery@snapshot: GetCachedStateResponse")

		var sensors []domain.GenericSensor
		var switches []domain.GenericSwitch
		var inputNumbers []domain.GenericInputNumber

		bridgeDevice := events.BridgeDevice(state.config.MQTT.BaseTopic)
		bridgeSensors := events.BridgeSensors(bridgeDevice)
		sensors = append(sensors, bridgeSensors...)

		pranaDevice := events.PranaDevice(state.config.Device.Name, msg.State)
		pranaDevice.ViaDevice = bridgeDevice.Id
		pranaSensors := events.RecuperatorSensors(pranaDevice, msg.State)
		for i := range pranaSensors {
			if i > 0 {
				pranaSensors[i].Device = events.IdDevice(pranaDevice)
			}
			sensors = append(sensors, pranaSensors[i])
		}

		switches = append(switches, events.RecuperatorSwitches(events.IdDevice(pranaDevice))...)
		inputNumbers = append(inputNumbers, events.RecuperatorInputNumbers(events.IdDevice(pranaDevice))...)

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:      sensors,
			Switches:     switches,
			InputNumbers: inputNumbers,
		})
		state.behavior.Become(state.Done)

	case snapshotRetryTick:
		state.requestSnapshot(ctx)
	default:
		state.logger.Debug("hadiscovery@snapshot: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) requestSnapshot(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.coordinatorActor, domain.GetCachedStateRequest{}, 2*time.Second), func(err error) any {
		return domain.GetCachedStateResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}
