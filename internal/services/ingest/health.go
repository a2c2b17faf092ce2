package ingest

import (
	"encoding/json"
	"net/http"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type healthHandler struct {
	mqtt paho.Client
}

// NewHealthHandler reports broker connectivity on /healthz.
func NewHealthHandler(m paho.Client) http.Handler {
	return &healthHandler{mqtt: m}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	type status struct {
		Status        string `json:"status"`
		MQTTConnected bool   `json:"mqtt_connected"`
	}
	st := status{MQTTConnected: h.mqtt != nil && h.mqtt.IsConnectionOpen()}
	if st.MQTTConnected {
		st.Status = "ok"
	} else {
		st.Status = "down"
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(st)
}

type readyHandler struct {
	mqtt paho.Client
}

// NewReadyHandler returns 200 on /readyz only when the broker connection is
// up.
func NewReadyHandler(m paho.Client) http.Handler {
	return &readyHandler{mqtt: m}
}

func (h *readyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	ready := h.mqtt != nil && h.mqtt.IsConnectionOpen()
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Header().Set("Content-Type", "application/json")
	type resp struct {
		Ready bool `json:"ready"`
	}
	_ = json.NewEncoder(w).Encode(resp{Ready: ready})
}
