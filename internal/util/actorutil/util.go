package actorutil

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/core/events"
	"github.com/berfenger/prana2mqtt/internal/mqtt"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {

		// create a new logger
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps an MQTT command topic to the coordinator
// request carrying the device intent. Unknown ids map to (nil, nil) and are
// dropped by the caller.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	switch cmd.DeviceId {
	case events.SWITCH_ID_BOUND, events.SWITCH_ID_HEATER, events.SWITCH_ID_WINTER,
		events.SWITCH_ID_AUTO, events.SWITCH_ID_AUTO_PLUS, events.SWITCH_ID_NIGHT,
		events.SWITCH_ID_BOOST:
		return domain.ApplyCommandRequest{
			Intent: pranadev.SetSwitchIntent{
				Switch: pranadev.SwitchType(cmd.DeviceId),
				On:     cmd.Payload == "on",
			},
		}, nil
	case events.SWITCH_ID_SUPPLY_POWER:
		return fanPowerCommand(pranadev.FanSupply, cmd.Payload), nil
	case events.SWITCH_ID_EXTRACT_POWER:
		return fanPowerCommand(pranadev.FanExtract, cmd.Payload), nil
	case events.SWITCH_ID_BOUNDED_POWER:
		return fanPowerCommand(pranadev.FanBounded, cmd.Payload), nil
	case events.INPUT_NUMBER_ID_SUPPLY_SPEED:
		return fanSpeedCommand(pranadev.FanSupply, cmd.Payload)
	case events.INPUT_NUMBER_ID_EXTRACT_SPEED:
		return fanSpeedCommand(pranadev.FanExtract, cmd.Payload)
	case events.INPUT_NUMBER_ID_BOUNDED_SPEED:
		return fanSpeedCommand(pranadev.FanBounded, cmd.Payload)
	case events.INPUT_NUMBER_ID_BRIGHTNESS:
		value, err := strconv.ParseFloat(cmd.Payload, 64)
		if err != nil {
			return nil, err
		}
		return domain.ApplyCommandRequest{
			Intent: pranadev.SetBrightnessIntent{Level: int(value)},
		}, nil
	}
	return nil, nil
}

func fanPowerCommand(fan pranadev.FanType, payload string) domain.ActorRequest {
	return domain.ApplyCommandRequest{
		Intent: pranadev.SetFanPowerIntent{
			Fan: fan,
			On:  payload == "on",
		},
	}
}

func fanSpeedCommand(fan pranadev.FanType, payload string) (domain.ActorRequest, error) {
	value, err := strconv.ParseFloat(payload, 64)
	if err != nil {
		return nil, err
	}
	return domain.ApplyCommandRequest{
		Intent: pranadev.SetSpeedIntent{
			Fan:   fan,
			Speed: int(value),
		},
	}, nil
}
