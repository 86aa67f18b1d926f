package queue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/bridge"
	"github.com/chenguangwei/ominiclipper-all-sub003/pkg/models"
)

// HTTPDeliverer posts payloads to the bridge's loopback endpoint. The port
// is re-read from the discovery file on every attempt, so the agent follows
// the host across restarts.
type HTTPDeliverer struct {
	portFile string
	client   *http.Client
}

// NewHTTPDeliverer creates a deliverer that discovers the bridge through
// portFile.
func NewHTTPDeliverer(portFile string) *HTTPDeliverer {
	return &HTTPDeliverer{
		portFile: portFile,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver pushes one payload to the host's sync-one endpoint
func (d *HTTPDeliverer) Deliver(payload *models.SyncPayload) error {
	port, err := bridge.ReadPortFile(d.portFile)
	if err != nil {
		return fmt.Errorf("bridge not discoverable: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	url := fmt.Sprintf("http://127.0.0.1:%d/api/sync-one", port)
	resp, err := d.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("deliver to bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bridge rejected delivery: status %d: %s", resp.StatusCode, msg)
	}
	return nil
}

// Ping reports whether the bridge is reachable
func (d *HTTPDeliverer) Ping() error {
	port, err := bridge.ReadPortFile(d.portFile)
	if err != nil {
		return fmt.Errorf("bridge not discoverable: %w", err)
	}

	resp, err := d.client.Get(fmt.Sprintf("http://127.0.0.1:%d/api/ping", port))
	if err != nil {
		return fmt.Errorf("ping bridge: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
