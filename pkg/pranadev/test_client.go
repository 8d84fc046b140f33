package pranadev

import (
	"fmt"
	"strings"
	"sync"
)

// TestTransport is a scriptable in-memory Transport. Every call is recorded
// so tests can assert that validation failures never reach the network.
type TestTransport struct {
	mu       sync.Mutex
	raw      RawState
	fetchErr error
	sendErr  error
	calls    []string
}

func NewTestTransport() *TestTransport {
	return &TestTransport{
		raw: RawState{
			"supply":  map[string]any{"speed": float64(2), "is_on": true},
			"extract": map[string]any{"speed": float64(2), "is_on": true},
			"bounded": map[string]any{"speed": float64(0), "is_on": false},
			"bound":   false,
			"heater":  false,
			"winter":  false,
			"auto":    true,
			"night":   false,
			"boost":   false,

			"brightness":         float64(4),
			"inside_temperature": float64(215),
			"humidity":           float64(47),
			"co2":                float64(612),
			"firmware_version":   "3.1.4",
		},
	}
}

func (t *TestTransport) FetchState() (RawState, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, "fetchState")
	if t.fetchErr != nil {
		return nil, t.fetchErr
	}
	return t.raw, nil
}

func (t *TestTransport) SendSpeed(fan FanType, speed int) error {
	return t.record(fmt.Sprintf("setSpeed %s %d", fan, speed))
}

func (t *TestTransport) SendSpeedPower(fan FanType, on bool) error {
	return t.record(fmt.Sprintf("setSpeedIsOn %s %t", fan, on))
}

func (t *TestTransport) SendSwitch(sw SwitchType, on bool) error {
	return t.record(fmt.Sprintf("setSwitch %s %t", sw, on))
}

func (t *TestTransport) SendBrightness(level int) error {
	return t.record(fmt.Sprintf("setBrightness %d", level))
}

func (t *TestTransport) Rebind(addr DeviceAddress) {
	_ = t.record(fmt.Sprintf("rebind %s", addr))
}

func (t *TestTransport) Close() {}

// SetRaw replaces the state payload returned by FetchState.
func (t *TestTransport) SetRaw(raw RawState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.raw = raw
}

// FailFetch makes FetchState fail until called again with nil.
func (t *TestTransport) FailFetch(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetchErr = err
}

// FailSend makes every command call fail until called again with nil.
func (t *TestTransport) FailSend(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

func (t *TestTransport) Calls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.calls))
	copy(out, t.calls)
	return out
}

func (t *TestTransport) CommandCalls() int {
	n := 0
	for _, c := range t.Calls() {
		if c != "fetchState" && !strings.HasPrefix(c, "rebind") {
			n++
		}
	}
	return n
}

func (t *TestTransport) record(call string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call)
	return t.sendErr
}
