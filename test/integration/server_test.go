package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/msto63/koi/internal/server"
	"github.com/msto63/koi/pkg/core/health"
)

// ============================================================================
// Live Server Tests
// ============================================================================
// These run against a server started with `koi serve` and are skipped when
// nothing listens on TEST_KOI_ADDR.

// TestServer_Healthz checks the health report of a running server
func TestServer_Healthz(t *testing.T) {
	cfg := getTestConfig()
	skipIfServiceUnavailable(t, cfg.KoiAddr, "koi")
	logTestStart(t, "Server", "Healthz")

	resp, err := httpClient.Get(fmt.Sprintf("http://%s/healthz", cfg.KoiAddr))
	requireNoError(t, err, "GET /healthz failed")
	defer resp.Body.Close()

	requireEqual(t, http.StatusOK, resp.StatusCode, "Expected 200 OK")

	var report health.Report
	requireNoError(t, json.NewDecoder(resp.Body).Decode(&report), "Failed to decode report")
	requireEqual(t, health.StatusHealthy, report.Status, "overall status")
	t.Logf("koi %s up for %s", report.Version, report.Uptime)
}

// TestServer_Parse streams a document through a running server
func TestServer_Parse(t *testing.T) {
	cfg := getTestConfig()
	skipIfServiceUnavailable(t, cfg.KoiAddr, "koi")
	logTestStart(t, "Server", "Parse")

	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("ws://%s/ws", cfg.KoiAddr), nil)
	requireNoError(t, err, "websocket dial failed")
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(10 * time.Second))

	payload, err := json.Marshal(server.ParsePayload{Text: document})
	requireNoError(t, err, "marshal payload failed")
	requireNoError(t, conn.WriteJSON(server.Message{Type: server.TypeParse, ID: "it", Payload: payload}), "send failed")

	var commands int
	for {
		var msg server.Message
		requireNoError(t, conn.ReadJSON(&msg), "read failed")
		requireEqual(t, "it", msg.ID, "reply id")

		if msg.Type == server.TypeCommand {
			commands++
			continue
		}
		requireEqual(t, server.TypeDone, msg.Type, "frame type")

		var done server.DonePayload
		requireNoError(t, json.Unmarshal(msg.Payload, &done), "decode done failed")
		requireEqual(t, commands, done.Commands, "done command count")
		return
	}
}
