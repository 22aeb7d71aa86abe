package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanmeadows/prwright/internal/history"
	"github.com/alanmeadows/prwright/internal/pr"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func TestEventsStreamRequestLifecycle(t *testing.T) {
	s, core, store := setupAPITest(t)
	require.NoError(t, store.Append(history.Entry{
		RequestTime: "2026-03-01T11:00:00.000000000Z",
		Status:      history.StatusError,
		Prompt:      "older request",
	}))

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	snapshot := readEvent(t, ctx, conn)
	assert.Equal(t, EventHistory, snapshot.Type)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal(snapshot.Payload, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "older request", entries[0].Prompt)

	body := `{"action":"createPrWithAI","prompt":"bump","activeUrl":"https://dev.azure.com/o/p/_git/r"}`
	resp, err := http.Post(ts.URL+"/requests", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	accepted := readEvent(t, ctx, conn)
	assert.Equal(t, EventRequestAccepted, accepted.Type)
	var ap AcceptedPayload
	require.NoError(t, json.Unmarshal(accepted.Payload, &ap))
	assert.Equal(t, "bump", ap.Prompt)
	assert.Equal(t, "repo", ap.Scope)

	close(core.release)

	finished := readEvent(t, ctx, conn)
	assert.Equal(t, EventRequestFinished, finished.Type)
	var fp FinishedPayload
	require.NoError(t, json.Unmarshal(finished.Payload, &fp))
	assert.Equal(t, ap.RequestTime, fp.RequestTime)
	assert.Equal(t, pr.StatusSuccess, fp.Result.Status)

	s.Wait()
}

func TestCreateNotBlockedByStalledSubscriber(t *testing.T) {
	s, core, _ := setupAPITest(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	require.NoError(t, err)
	defer conn.CloseNow()
	assert.Equal(t, EventHistory, readEvent(t, ctx, conn).Type)

	var sub *subscriber
	require.Eventually(t, func() bool {
		s.events.mu.RLock()
		defer s.events.mu.RUnlock()
		for _, v := range s.events.subs {
			sub = v
		}
		return sub != nil
	}, 2*time.Second, 10*time.Millisecond)

	// Hold the subscriber's write lock so every event write to it stalls.
	sub.mu.Lock()
	client := &http.Client{Timeout: 2 * time.Second}
	body := `{"action":"createPrWithAI","prompt":"bump","activeUrl":"https://dev.azure.com/o/p/_git/r"}`
	resp, err := client.Post(ts.URL+"/requests", "application/json", strings.NewReader(body))
	sub.mu.Unlock()
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, EventRequestAccepted, readEvent(t, ctx, conn).Type)
	close(core.release)
	assert.Equal(t, EventRequestFinished, readEvent(t, ctx, conn).Type)
	s.Wait()
}
