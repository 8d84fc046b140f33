package domain

import (
	"time"

	"github.com/berfenger/prana2mqtt/pkg/pranadev"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_DEVICE       = "device"
	ACTOR_ID_COORDINATOR  = "coordinator"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

// Device transport actor messages

type FetchStateRequest struct {
	ActorRequestMixIn
}

type FetchStateResponse struct {
	ActorResponseMixIn
	State *pranadev.State
}

type SendCommandRequest struct {
	ActorRequestMixIn
	Request *pranadev.TransportRequest
}

type SendCommandResponse struct {
	ActorResponseMixIn
	Control string
}

type RebindTransportRequest struct {
	ActorRequestMixIn
	Address pranadev.DeviceAddress
}

type RebindTransportResponse struct {
	ActorResponseMixIn
}

// Coordinator messages

type StartPollingRequest struct {
	ActorRequestMixIn
	Address      pranadev.DeviceAddress
	PollInterval time.Duration
}

type StartPollingResponse struct {
	ActorResponseMixIn
	AlreadyRunning bool
}

type StopPollingRequest struct {
	ActorRequestMixIn
}

type StopPollingResponse struct {
	ActorResponseMixIn
}

type GetCachedStateRequest struct {
	ActorRequestMixIn
}

type GetCachedStateResponse struct {
	ActorResponseMixIn
	State    *pranadev.State
	Degraded bool
}

type ApplyCommandRequest struct {
	ActorRequestMixIn
	Intent pranadev.CommandIntent
}

type ApplyCommandResponse struct {
	ActorResponseMixIn
	State *pranadev.State
}

type ForceRefreshRequest struct {
	ActorRequestMixIn
}

type ForceRefreshResponse struct {
	ActorResponseMixIn
	State *pranadev.State
}

// DeviceAddressChanged re-binds the transport without resetting the cached
// snapshot. Emitted by the discovery layer through the master actor.
type DeviceAddressChanged struct {
	Address pranadev.DeviceAddress
}

// MQTT actor messages

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// Health checks

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
