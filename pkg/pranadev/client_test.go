package pranadev

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func addressForServer(t *testing.T, server *httptest.Server) DeviceAddress {
	t.Helper()
	u, err := url.Parse(server.URL)
	assert.NoError(t, err)
	port, err := strconv.ParseUint(u.Port(), 10, 32)
	assert.NoError(t, err)
	return DeviceAddress{Host: u.Hostname(), Port: uint(port)}
}

func transportForServer(t *testing.T, server *httptest.Server) *HTTPTransport {
	t.Helper()
	return NewHTTPTransport(addressForServer(t, server), 2*time.Second, zap.NewNop())
}

func TestFetchStateDecodesPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/getState", r.URL.Path)
		_, _ = w.Write([]byte(`{"extract":{"speed":3,"is_on":true},"night":true,"co2":640}`))
	}))
	defer server.Close()

	raw, err := transportForServer(t, server).FetchState()
	assert.NoError(t, err)

	state := StateFromRaw(raw, zap.NewNop())
	assert.Equal(t, 3, state.ExtractSpeed)
	assert.True(t, state.ExtractOn)
	assert.True(t, state.Night)
}

func TestCommandPayloadShapes(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody = nil
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		// device replies with an empty body
	}))
	defer server.Close()

	transport := transportForServer(t, server)

	assert.NoError(t, transport.SendSpeed(FanExtract, 4))
	assert.Equal(t, "/setSpeed", gotPath)
	assert.Equal(t, map[string]any{"speed": float64(40), "fanType": "extract"}, gotBody)

	assert.NoError(t, transport.SendSpeedPower(FanSupply, false))
	assert.Equal(t, "/setSpeedIsOn", gotPath)
	assert.Equal(t, map[string]any{"value": false, "fanType": "supply"}, gotBody)

	assert.NoError(t, transport.SendSwitch(SwitchWinter, true))
	assert.Equal(t, "/setSwitch", gotPath)
	assert.Equal(t, map[string]any{"switchType": "winter", "value": true}, gotBody)

	assert.NoError(t, transport.SendBrightness(4))
	assert.Equal(t, "/setBrightness", gotPath)
	assert.Equal(t, map[string]any{"brightness": float64(8)}, gotBody)
}

func TestFetchStateMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	_, err := transportForServer(t, server).FetchState()
	te, ok := AsTransportError(err)
	assert.True(t, ok)
	assert.Equal(t, TransportMalformedResponse, te.Kind)
}

func TestFetchStateHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := transportForServer(t, server).FetchState()
	te, ok := AsTransportError(err)
	assert.True(t, ok)
	assert.Equal(t, TransportHTTPStatus, te.Kind)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestFetchStateConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := transportForServer(t, server).FetchState()
	te, ok := AsTransportError(err)
	assert.True(t, ok)
	assert.Equal(t, TransportConnectionRefused, te.Kind)
}

func TestFetchStateTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer func() {
		close(release)
		server.Close()
	}()

	transport := NewHTTPTransport(addressForServer(t, server), 100*time.Millisecond, zap.NewNop())

	_, err := transport.FetchState()
	te, ok := AsTransportError(err)
	assert.True(t, ok)
	assert.Equal(t, TransportTimeout, te.Kind)
}

func TestRebindSwitchesTarget(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"brightness":1}`))
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"brightness":2}`))
	}))
	defer second.Close()

	transport := transportForServer(t, first)
	raw, err := transport.FetchState()
	assert.NoError(t, err)
	assert.Equal(t, 1, StateFromRaw(raw, zap.NewNop()).Brightness)

	transport.Rebind(addressForServer(t, second))

	raw, err = transport.FetchState()
	assert.NoError(t, err)
	assert.Equal(t, 2, StateFromRaw(raw, zap.NewNop()).Brightness)
}
