package httpapi

import (
	"batepapo/observability"
	"batepapo/repositories"
	"batepapo/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	messageRepository, err := repositories.NewMessageRepository(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = messageRepository.Close() })

	registry := prometheus.NewRegistry()
	chat := services.NewChatService(
		slog.Default(),
		repositories.NewParticipantRepository(db),
		messageRepository,
		observability.NewMetrics(registry),
	)
	server := NewServer(slog.Default(), chat, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, user, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func Test_Join_Endpoint(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/participants", "", `{"name":"Ana"}`)
	req.Equal(http.StatusCreated, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/participants", "", `{"name":"Ana"}`)
	req.Equal(http.StatusConflict, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/participants", "", `{"name":""}`)
	req.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/participants", "", "")
	req.Equal(http.StatusOK, resp.StatusCode)
	var participants []participantDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&participants))
	req.Len(participants, 1)
	req.Equal("Ana", participants[0].Name)
}

func Test_Message_Endpoints(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/participants", "", `{"name":"Ana"}`)
	do(t, ts, http.MethodPost, "/participants", "", `{"name":"Bob"}`)

	// absent author
	resp := do(t, ts, http.MethodPost, "/messages", "Carla", `{"to":"Todos","text":"oi","type":"message"}`)
	req.Equal(http.StatusNotFound, resp.StatusCode)

	// clients cannot post status messages
	resp = do(t, ts, http.MethodPost, "/messages", "Ana", `{"to":"Todos","text":"oi","type":"status"}`)
	req.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/messages", "Ana", `{"to":"Bob","text":"segredo","type":"private_message"}`)
	req.Equal(http.StatusCreated, resp.StatusCode)
	var posted messageDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&posted))

	// Carla polls: two join notices only, the private message is hidden
	resp = do(t, ts, http.MethodGet, "/messages", "Carla", "")
	req.Equal(http.StatusOK, resp.StatusCode)
	var visible []messageDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&visible))
	req.Len(visible, 2)

	// only the author may edit or delete
	resp = do(t, ts, http.MethodPut, "/messages/"+posted.ID, "Bob", `{"text":"hacked"}`)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/messages/"+posted.ID, "Bob", "")
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, ts, http.MethodPut, "/messages/"+posted.ID, "Ana", `{"text":"novo segredo"}`)
	req.Equal(http.StatusOK, resp.StatusCode)
	var edited messageDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&edited))
	req.Equal("novo segredo", edited.Text)
	req.Equal(posted.ID, edited.ID)

	resp = do(t, ts, http.MethodDelete, "/messages/"+posted.ID, "Ana", "")
	req.Equal(http.StatusOK, resp.StatusCode)

	resp = do(t, ts, http.MethodDelete, "/messages/"+posted.ID, "Ana", "")
	req.Equal(http.StatusNotFound, resp.StatusCode)
}

func Test_Heartbeat_Endpoint(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/status", "Ana", "")
	req.Equal(http.StatusNotFound, resp.StatusCode)

	do(t, ts, http.MethodPost, "/participants", "", `{"name":"Ana"}`)

	resp = do(t, ts, http.MethodPost, "/status", "Ana", "")
	req.Equal(http.StatusOK, resp.StatusCode)
}

func Test_Limit_Param(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/participants", "", `{"name":"Ana"}`)
	for _, text := range []string{"um", "dois", "tres"} {
		resp := do(t, ts, http.MethodPost, "/messages", "Ana", `{"to":"Todos","text":"`+text+`","type":"message"}`)
		req.Equal(http.StatusCreated, resp.StatusCode)
	}

	resp := do(t, ts, http.MethodGet, "/messages?limit=2", "Bob", "")
	req.Equal(http.StatusOK, resp.StatusCode)
	var page []messageDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&page))
	req.Len(page, 2)
	req.Equal("dois", page[0].Text)
	req.Equal("tres", page[1].Text)

	// falsy or unparsable limits mean "return all", as in the original
	for _, query := range []string{"limit=0", "limit=zero"} {
		resp = do(t, ts, http.MethodGet, "/messages?"+query, "Bob", "")
		req.Equal(http.StatusOK, resp.StatusCode)
		var all []messageDTO
		req.NoError(json.NewDecoder(resp.Body).Decode(&all))
		req.Len(all, 4) // join notice + the three messages
	}
}

func Test_Edit_Rejects_Explicit_Empty_Text(t *testing.T) {
	req := require.New(t)
	ts := newTestServer(t)

	do(t, ts, http.MethodPost, "/participants", "", `{"name":"Ana"}`)
	resp := do(t, ts, http.MethodPost, "/messages", "Ana", `{"to":"Todos","text":"oi","type":"message"}`)
	req.Equal(http.StatusCreated, resp.StatusCode)
	var posted messageDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&posted))

	// an explicit empty text is a validation failure, not "keep current"
	resp = do(t, ts, http.MethodPut, "/messages/"+posted.ID, "Ana", `{"text":""}`)
	req.Equal(http.StatusUnprocessableEntity, resp.StatusCode)

	// an absent text keeps the current one
	resp = do(t, ts, http.MethodPut, "/messages/"+posted.ID, "Ana", `{"to":"Todos"}`)
	req.Equal(http.StatusOK, resp.StatusCode)
	var edited messageDTO
	req.NoError(json.NewDecoder(resp.Body).Decode(&edited))
	req.Equal("oi", edited.Text)
}
