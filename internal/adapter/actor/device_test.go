package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/util/actorutil"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestFetchStateDeviceActor(t *testing.T) {

	assert := assert.New(t)

	transport := pranadev.NewTestTransport()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(transport, 2*time.Second, logger)
	})
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.FetchStateRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.FetchStateResponse)

	assert.False(resp.HasResponseError())
	assert.NotNil(resp.State)
	assert.Equal(2, resp.State.SupplySpeed, "supply speed")
	assert.True(resp.State.SupplyOn, "supply on")
	assert.Equal("3.1.4", resp.State.FirmwareVersion, "firmware version")

	context.Stop(pid)

	as.Shutdown()
}

func TestSendCommandDeviceActor(t *testing.T) {

	assert := assert.New(t)

	transport := pranadev.NewTestTransport()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(transport, 2*time.Second, logger)
	})
	pid := context.Spawn(props)

	request, err := pranadev.Translate(pranadev.SetSwitchIntent{Switch: pranadev.SwitchHeater, On: true})
	if err != nil {
		t.Error(err)
		return
	}

	result, err := context.RequestFuture(pid, domain.SendCommandRequest{Request: request}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.SendCommandResponse)

	assert.False(resp.HasResponseError())
	assert.Equal("heater", resp.Control, "control")
	assert.Contains(transport.Calls(), "setSwitch heater true")

	context.Stop(pid)

	as.Shutdown()
}

func TestSendCommandErrorDeviceActor(t *testing.T) {

	assert := assert.New(t)

	transport := pranadev.NewTestTransport()
	transport.FailSend(errors.New("boom"))

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(transport, 2*time.Second, logger)
	})
	pid := context.Spawn(props)

	request, err := pranadev.Translate(pranadev.SetBrightnessIntent{Level: 3})
	if err != nil {
		t.Error(err)
		return
	}

	result, err := context.RequestFuture(pid, domain.SendCommandRequest{Request: request}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.SendCommandResponse)

	assert.True(resp.HasResponseError())
	assert.Equal("brightness", resp.Control, "control travels with the error")

	context.Stop(pid)

	as.Shutdown()
}

func TestRebindTransportDeviceActor(t *testing.T) {

	assert := assert.New(t)

	transport := pranadev.NewTestTransport()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(transport, 2*time.Second, logger)
	})
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.RebindTransportRequest{
		Address: pranadev.DeviceAddress{Host: "10.0.0.9", Port: 80},
	}, 5*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.RebindTransportResponse)

	assert.False(resp.HasResponseError())
	assert.Contains(transport.Calls(), "rebind 10.0.0.9:80")

	context.Stop(pid)

	as.Shutdown()
}
