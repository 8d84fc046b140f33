package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/prana2mqtt/internal/adapter/actor"
	"github.com/berfenger/prana2mqtt/internal/adapter/discovery"
	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/util"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	resolver := discovery.NewStaticResolver(cfg.Device.Address())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, resolver, func() *adactor.DeviceActor {
			return adactor.NewDeviceActor(pranadev.NewTestTransport(), cfg.Device.RequestTimeout(), logger)
		}, func(eventStream *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, eventStream, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	// master forwards snapshot reads to the coordinator
	res, err = context.RequestFuture(pid, domain.GetCachedStateRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	stateResp, ok := res.(domain.GetCachedStateResponse)
	assert.True(t, ok)
	assert.False(t, stateResp.HasResponseError())
	assert.NotNil(t, stateResp.State)
	assert.Equal(t, 2, stateResp.State.SupplySpeed)

	context.Stop(pid)

	as.Shutdown()
}
