package attempt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/talentquiz/internal/auth"
	"github.com/gokatarajesh/talentquiz/internal/auth/jwt"
	"github.com/gokatarajesh/talentquiz/internal/catalog"
	"github.com/gokatarajesh/talentquiz/internal/store"
	"github.com/gokatarajesh/talentquiz/pkg/http/ws"
)

func TestWSFeedStreamsStateAndCompletion(t *testing.T) {
	ctx := context.Background()
	tests := catalog.NewService(store.NewMemoryStore(), zerolog.Nop())
	created, err := tests.Create(ctx, quizTest(0))
	require.NoError(t, err)

	hub := ws.NewHub(zerolog.Nop())
	manager := NewManager(tests, nil, hub, nil, ManagerOptions{TickInterval: time.Hour}, zerolog.Nop())
	defer manager.Close()

	tokens := jwt.NewManager(jwt.TokenConfig{AccessSecret: []byte("test-secret")})
	mux := http.NewServeMux()
	mux.Handle("GET /ws/attempts/{id}", NewWSHandler(manager, hub, nil, zerolog.Nop()))
	srv := httptest.NewServer(auth.AuthMiddleware(tokens, zerolog.Nop())(mux))
	defer srv.Close()

	snap, err := manager.Create(ctx, created.ID, "cand-1")
	require.NoError(t, err)
	_, err = manager.Start(ctx, snap.ID, "cand-1")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/attempts/" + snap.ID

	other, err := tokens.GenerateAccessToken(jwt.User{ID: "cand-2", Role: jwt.RoleCandidate})
	require.NoError(t, err)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token="+other, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	token, err := tokens.GenerateAccessToken(jwt.User{ID: "cand-1", Role: jwt.RoleCandidate})
	require.NoError(t, err)
	client, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer client.Close()

	read := func() ws.Message {
		var msg ws.Message
		_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
		require.NoError(t, client.ReadJSON(&msg))
		return msg
	}

	assert.Equal(t, ws.TypeAttemptState, read().Type)

	require.NoError(t, client.WriteJSON(ws.Message{Type: ws.TypePing, RequestID: "r1"}))
	pong := read()
	assert.Equal(t, ws.TypePong, pong.Type)
	assert.Equal(t, "r1", pong.RequestID)

	require.NoError(t, client.WriteJSON(ws.Message{Type: "bogus"}))
	assert.Equal(t, ws.TypeError, read().Type)

	_, err = manager.Submit(ctx, snap.ID, "cand-1")
	require.NoError(t, err)
	done := read()
	assert.Equal(t, ws.TypeAttemptCompleted, done.Type)
	assert.Contains(t, string(done.Payload), `"reason":"submitted"`)
}
