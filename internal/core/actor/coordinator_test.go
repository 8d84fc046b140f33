package actor

import (
	"errors"
	"sync"
	"testing"
	"time"

	adactor "github.com/berfenger/prana2mqtt/internal/adapter/actor"
	"github.com/berfenger/prana2mqtt/internal/core/domain"
	"github.com/berfenger/prana2mqtt/internal/util"
	"github.com/berfenger/prana2mqtt/internal/util/actorutil"
	"github.com/berfenger/prana2mqtt/pkg/pranadev"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type coordinatorTestHarness struct {
	as        *actor.ActorSystem
	context   *actor.RootContext
	transport *pranadev.TestTransport
	pid       *actor.PID
}

func setupCoordinator(t *testing.T, startPolling bool) *coordinatorTestHarness {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	cfg := util.LoadTestConfig()
	transport := pranadev.NewTestTransport()

	deviceProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewDeviceActor(transport, cfg.Device.RequestTimeout(), logger)
	})
	devicePID := context.Spawn(deviceProps)

	coordProps := actor.PropsFromProducer(func() actor.Actor {
		return NewCoordinatorActor(&cfg, devicePID, &eventstream.EventStream{}, logger)
	})
	coordPID := context.Spawn(coordProps)

	if startPolling {
		res, err := context.RequestFuture(coordPID, domain.StartPollingRequest{
			Address:      pranadev.DeviceAddress{Host: "127.0.0.1", Port: 80},
			PollInterval: 1 * time.Hour,
		}, 5*time.Second).Result()
		if err != nil {
			t.Fatal(err)
		}
		resp, ok := res.(domain.StartPollingResponse)
		assert.True(t, ok)
		assert.False(t, resp.HasResponseError())

		// wait for the first refresh to land
		time.Sleep(500 * time.Millisecond)
	}

	return &coordinatorTestHarness{
		as:        as,
		context:   context,
		transport: transport,
		pid:       coordPID,
	}
}

func (h *coordinatorTestHarness) shutdown() {
	h.context.Stop(h.pid)
	h.as.Shutdown()
}

func (h *coordinatorTestHarness) cachedState(t *testing.T) domain.GetCachedStateResponse {
	res, err := h.context.RequestFuture(h.pid, domain.GetCachedStateRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := res.(domain.GetCachedStateResponse)
	assert.True(t, ok)
	return resp
}

func (h *coordinatorTestHarness) applyCommand(t *testing.T, intent pranadev.CommandIntent) domain.ApplyCommandResponse {
	res, err := h.context.RequestFuture(h.pid, domain.ApplyCommandRequest{Intent: intent}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := res.(domain.ApplyCommandResponse)
	assert.True(t, ok)
	return resp
}

func (h *coordinatorTestHarness) forceRefresh(t *testing.T) domain.ForceRefreshResponse {
	res, err := h.context.RequestFuture(h.pid, domain.ForceRefreshRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	resp, ok := res.(domain.ForceRefreshResponse)
	assert.True(t, ok)
	return resp
}

func TestCoordinatorBeforeStartPolling(t *testing.T) {

	h := setupCoordinator(t, false)
	defer h.shutdown()

	resp := h.cachedState(t)
	assert.True(t, resp.HasResponseError())
	le, ok := domain.AsLifecycleError(resp.GetResponseError())
	assert.True(t, ok)
	assert.Equal(t, domain.LifecycleNotStarted, le.Kind)

	cmdResp := h.applyCommand(t, pranadev.SetSpeedIntent{Fan: pranadev.FanSupply, Speed: 3})
	assert.True(t, cmdResp.HasResponseError())
	_, ok = domain.AsLifecycleError(cmdResp.GetResponseError())
	assert.True(t, ok)

	// the device was never touched
	assert.Equal(t, 0, h.transport.CommandCalls())

	hcr, err := healthCheck(h.context, h.pid)
	if err != nil {
		t.Error(err)
		return
	}
	assert.Equal(t, "uninitialized", hcr.State)
}

func TestCoordinatorCachedStateAfterFirstRefresh(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	resp := h.cachedState(t)
	assert.False(t, resp.HasResponseError())
	assert.NotNil(t, resp.State)
	assert.False(t, resp.Degraded)

	assert.Equal(t, 2, resp.State.SupplySpeed)
	assert.Equal(t, 2, resp.State.ExtractSpeed)
	assert.True(t, resp.State.SupplyOn)
	assert.True(t, resp.State.Auto)
	assert.Equal(t, 4, resp.State.Brightness)
	assert.Equal(t, "3.1.4", resp.State.FirmwareVersion)
	if assert.NotNil(t, resp.State.InsideTemp) {
		assert.Equal(t, 21.5, *resp.State.InsideTemp)
	}
	assert.Nil(t, resp.State.OutsideTemp)

	hcr, err := healthCheck(h.context, h.pid)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy)
	assert.Equal(t, "polling", hcr.State)
}

func TestCoordinatorOptimisticCommand(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	resp := h.applyCommand(t, pranadev.SetSpeedIntent{Fan: pranadev.FanSupply, Speed: 5})
	assert.False(t, resp.HasResponseError())
	assert.NotNil(t, resp.State)
	assert.Equal(t, 5, resp.State.SupplySpeed)

	// confirmed command is visible on the next read without a refresh
	cached := h.cachedState(t)
	assert.NotNil(t, cached.State)
	assert.Equal(t, 5, cached.State.SupplySpeed)
	assert.Equal(t, 2, cached.State.ExtractSpeed)

	assert.Contains(t, h.transport.Calls(), "setSpeed supply 5")
}

func TestCoordinatorCommandValidation(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	resp := h.applyCommand(t, pranadev.SetSpeedIntent{Fan: pranadev.FanSupply, Speed: 9})
	assert.True(t, resp.HasResponseError())
	ve, ok := pranadev.AsValidationError(resp.GetResponseError())
	assert.True(t, ok)
	assert.Equal(t, pranadev.ValidationOutOfRange, ve.Kind)

	resp = h.applyCommand(t, pranadev.SetSwitchIntent{Switch: "turbo", On: true})
	assert.True(t, resp.HasResponseError())
	ve, ok = pranadev.AsValidationError(resp.GetResponseError())
	assert.True(t, ok)
	assert.Equal(t, pranadev.ValidationUnknownControl, ve.Kind)

	// invalid commands never reach the device
	assert.Equal(t, 0, h.transport.CommandCalls())
}

func TestCoordinatorConcurrentCommands(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	// commands targeting different fields issued concurrently, both must land
	var wg sync.WaitGroup
	wg.Add(2)
	var speedResp, nightResp domain.ApplyCommandResponse
	go func() {
		defer wg.Done()
		res, err := h.context.RequestFuture(h.pid, domain.ApplyCommandRequest{
			Intent: pranadev.SetSpeedIntent{Fan: pranadev.FanExtract, Speed: 6},
		}, 10*time.Second).Result()
		if err != nil {
			t.Error(err)
			return
		}
		speedResp, _ = res.(domain.ApplyCommandResponse)
	}()
	go func() {
		defer wg.Done()
		res, err := h.context.RequestFuture(h.pid, domain.ApplyCommandRequest{
			Intent: pranadev.SetSwitchIntent{Switch: pranadev.SwitchNight, On: true},
		}, 10*time.Second).Result()
		if err != nil {
			t.Error(err)
			return
		}
		nightResp, _ = res.(domain.ApplyCommandResponse)
	}()
	wg.Wait()

	assert.False(t, speedResp.HasResponseError())
	assert.False(t, nightResp.HasResponseError())

	cached := h.cachedState(t)
	assert.NotNil(t, cached.State)
	assert.Equal(t, 6, cached.State.ExtractSpeed)
	assert.True(t, cached.State.Night)

	calls := h.transport.Calls()
	assert.Contains(t, calls, "setSpeed extract 6")
	assert.Contains(t, calls, "setSwitch night true")
}

func TestCoordinatorFailedCommandKeepsCache(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	h.transport.FailSend(errors.New("device choked"))

	resp := h.applyCommand(t, pranadev.SetBrightnessIntent{Level: 1})
	assert.True(t, resp.HasResponseError())

	cached := h.cachedState(t)
	assert.NotNil(t, cached.State)
	assert.Equal(t, 4, cached.State.Brightness)
}

func TestCoordinatorDegradedAndRecovery(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	h.transport.FailFetch(errors.New("connection refused"))

	for i := 0; i < 3; i++ {
		resp := h.forceRefresh(t)
		assert.True(t, resp.HasResponseError())
	}

	cached := h.cachedState(t)
	assert.True(t, cached.Degraded)
	// stale snapshot is still served while degraded
	assert.NotNil(t, cached.State)
	assert.Equal(t, 2, cached.State.SupplySpeed)

	hcr, err := healthCheck(h.context, h.pid)
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(t, hcr.Healthy)
	assert.Equal(t, "degraded", hcr.State)

	// one successful refresh clears degraded mode
	h.transport.FailFetch(nil)
	resp := h.forceRefresh(t)
	assert.False(t, resp.HasResponseError())
	assert.NotNil(t, resp.State)

	cached = h.cachedState(t)
	assert.False(t, cached.Degraded)

	hcr, err = healthCheck(h.context, h.pid)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy)
	assert.Equal(t, "polling", hcr.State)
}

func TestCoordinatorStopPolling(t *testing.T) {

	h := setupCoordinator(t, true)
	defer h.shutdown()

	res, err := h.context.RequestFuture(h.pid, domain.StopPollingRequest{}, 5*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	stopResp, ok := res.(domain.StopPollingResponse)
	assert.True(t, ok)
	assert.False(t, stopResp.HasResponseError())

	// last snapshot outlives the polling loop
	cached := h.cachedState(t)
	assert.False(t, cached.HasResponseError())
	assert.NotNil(t, cached.State)

	cmdResp := h.applyCommand(t, pranadev.SetSpeedIntent{Fan: pranadev.FanExtract, Speed: 1})
	assert.True(t, cmdResp.HasResponseError())
	le, ok := domain.AsLifecycleError(cmdResp.GetResponseError())
	assert.True(t, ok)
	assert.Equal(t, domain.LifecycleStopped, le.Kind)

	refreshResp := h.forceRefresh(t)
	assert.True(t, refreshResp.HasResponseError())

	hcr, err := healthCheck(h.context, h.pid)
	if err != nil {
		t.Error(err)
		return
	}
	assert.False(t, hcr.Healthy)
	assert.Equal(t, "terminated", hcr.State)
}

func healthCheck(ctx *actor.RootContext, pid *actor.PID) (*domain.ActorHealthResponse, error) {
	resp, err := ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		return nil, err
	}
	hcr, ok := resp.(domain.ActorHealthResponse)
	if !ok {
		return nil, errors.New("unexpected response type")
	}
	return &hcr, nil
}
