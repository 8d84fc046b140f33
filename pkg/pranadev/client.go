package pranadev

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	endpointGetState      = "/getState"
	endpointSetSpeed      = "/setSpeed"
	endpointSetSpeedIsOn  = "/setSpeedIsOn"
	endpointSetSwitch     = "/setSwitch"
	endpointSetBrightness = "/setBrightness"

	DefaultRequestTimeout = 5 * time.Second
)

// Transport issues requests against the device's local HTTP API. It does no
// caching and no retries; every call is bounded by the configured timeout.
// Safe for concurrent use by one poller and one in-flight command.
type Transport interface {
	FetchState() (RawState, error)
	SendSpeed(fan FanType, speed int) error
	SendSpeedPower(fan FanType, on bool) error
	SendSwitch(sw SwitchType, on bool) error
	SendBrightness(level int) error
	Rebind(addr DeviceAddress)
	Close()
}

type HTTPTransport struct {
	mu      sync.RWMutex
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPTransport(addr DeviceAddress, timeout time.Duration, logger *zap.Logger) *HTTPTransport {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPTransport{
		baseURL: addr.BaseURL(),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (t *HTTPTransport) FetchState() (RawState, error) {
	resp, err := t.client.Get(t.url(endpointGetState))
	if err != nil {
		return nil, classifyNetError(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, httpStatusError(resp.StatusCode)
	}
	var raw RawState
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &TransportError{Kind: TransportMalformedResponse, Err: err}
	}
	return raw, nil
}

func (t *HTTPTransport) SendSpeed(fan FanType, speed int) error {
	return t.post(endpointSetSpeed, map[string]any{
		"speed":   speed * SpeedStep,
		"fanType": string(fan),
	})
}

func (t *HTTPTransport) SendSpeedPower(fan FanType, on bool) error {
	return t.post(endpointSetSpeedIsOn, map[string]any{
		"value":   on,
		"fanType": string(fan),
	})
}

func (t *HTTPTransport) SendSwitch(sw SwitchType, on bool) error {
	return t.post(endpointSetSwitch, map[string]any{
		"switchType": string(sw),
		"value":      on,
	})
}

func (t *HTTPTransport) SendBrightness(level int) error {
	return t.post(endpointSetBrightness, map[string]any{
		"brightness": brightnessToWire(level),
	})
}

// Rebind points the transport at a new address. Called when the discovery
// layer reports an address change (e.g. a DHCP re-lease).
func (t *HTTPTransport) Rebind(addr DeviceAddress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger.Info("transport rebind", zap.String("address", addr.String()))
	t.baseURL = addr.BaseURL()
}

func (t *HTTPTransport) Close() {
	t.client.CloseIdleConnections()
}

func (t *HTTPTransport) url(endpoint string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.baseURL + endpoint
}

// post issues a command request. The device does not guarantee a response
// body, so any 2xx with an unreadable or empty body still counts as success.
func (t *HTTPTransport) post(endpoint string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &TransportError{Kind: TransportMalformedResponse, Err: err}
	}
	t.logger.Debug("device request", zap.String("endpoint", endpoint), zap.ByteString("payload", body))
	resp, err := t.client.Post(t.url(endpoint), "application/json", bytes.NewReader(body))
	if err != nil {
		return classifyNetError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpStatusError(resp.StatusCode)
	}
	return nil
}

func httpStatusError(code int) *TransportError {
	return &TransportError{
		Kind:       TransportHTTPStatus,
		StatusCode: code,
		Err:        fmt.Errorf("unexpected status %d", code),
	}
}

func classifyNetError(err error) *TransportError {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{Kind: TransportTimeout, Err: err}
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &TransportError{Kind: TransportConnectionRefused, Err: err}
	}
	// unresolvable host, reset connections and the like are treated as
	// connection failures; the taxonomy does not distinguish further
	return &TransportError{Kind: TransportConnectionRefused, Err: err}
}
