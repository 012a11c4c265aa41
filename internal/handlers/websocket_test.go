package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-vault-backend/internal/models"
)

func TestWebSocketStreamsOwnEvents(t *testing.T) {
	env := newTestEnv(t, false)
	env.bootstrap()
	p := env.player(100)
	other := env.player(100)
	w := env.do(env.primary, http.MethodPost, "/api/house/fund", models.AmountRequest{Amount: 1000})
	require.Equal(t, http.StatusOK, w.Code)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	token, err := env.jwt.IssueToken(p.key, http.MethodGet, "/api/ws", nil)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snapshot struct {
		Type string           `json:"type"`
		Data models.VaultView `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&snapshot))
	assert.Equal(t, "VAULT_SNAPSHOT", snapshot.Type)
	assert.Equal(t, uint64(100), snapshot.Data.Balance)

	w = env.do(env.settler, http.MethodPost, "/api/settlement/credit-win", models.OwnerAmountRequest{Owner: other.id, Amount: 5})
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(env.settler, http.MethodPost, "/api/settlement/credit-win", models.OwnerAmountRequest{Owner: p.id, Amount: 7})
	require.Equal(t, http.StatusOK, w.Code)

	var env1 models.EventEnvelope
	require.NoError(t, conn.ReadJSON(&env1))
	assert.Equal(t, models.EventAdjustment, env1.Type)
	assert.Equal(t, p.id, env1.Owner)
	assert.Contains(t, string(env1.Data), `"amount":7`)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "PING"}))
	var pong struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, "PONG", pong.Type)
}
