package notify_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/adapters/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	titles   []string
	messages []string
	err      error
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) Send(_ context.Context, title, message string) error {
	s.titles = append(s.titles, title)
	s.messages = append(s.messages, message)
	return s.err
}

func TestAlertText(t *testing.T) {
	title, msg := notify.AlertText(makeOpp("nyc", "KXHIGHNY-26JAN19-T85", 0.04))
	assert.Equal(t, "Weather Arb: NYC", title)
	assert.Equal(t, "BUY_NO KXHIGHNY-26JAN19-T85 | Edge: 4.0%", msg)
}

func TestAlerter_Cooldown(t *testing.T) {
	now := time.Date(2026, 1, 19, 18, 0, 0, 0, time.UTC)
	sink := &recordingSink{}
	var buf bytes.Buffer
	a := notify.NewAlerterWriter(&buf, time.Minute, sink).WithClock(func() time.Time { return now })

	ctx := context.Background()
	a.OpportunityAlert(ctx, makeOpp("nyc", "A", 0.04))

	now = now.Add(10 * time.Second)
	a.OpportunityAlert(ctx, makeOpp("nyc", "B", 0.04))
	require.Len(t, sink.messages, 1, "second alert inside the cooldown is suppressed")

	now = now.Add(61 * time.Second)
	a.OpportunityAlert(ctx, makeOpp("miami", "C", 0.05))
	require.Len(t, sink.messages, 2)
	assert.Equal(t, "Weather Arb: MIAMI", sink.titles[1])

	assert.Contains(t, buf.String(), "BUY_NO A | Edge: 4.0%")
	assert.NotContains(t, buf.String(), "BUY_NO B")
}

func TestAlerter_SinkErrorDoesNotPropagate(t *testing.T) {
	failing := &recordingSink{err: errors.New("boom")}
	other := &recordingSink{}
	a := notify.NewAlerterWriter(io.Discard, 0, failing, nil, other)

	a.OpportunityAlert(context.Background(), makeOpp("nyc", "A", 0.04))
	a.OpportunityAlert(context.Background(), makeOpp("nyc", "B", 0.04))

	assert.Len(t, failing.messages, 2, "zero cooldown never suppresses")
	assert.Len(t, other.messages, 2, "a failing sink does not block the others")
}

// --- Webhook ---

func TestWebhook_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Priority"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Weather Arb: NYC", body["title"])
		assert.Equal(t, "BUY_NO T | Edge: 4.0%", body["message"])
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := notify.NewWebhook(srv.URL+"/hooks/alerts", time.Second).Send(context.Background(), "Weather Arb: NYC", "BUY_NO T | Edge: 4.0%")
	assert.NoError(t, err)
}

func TestWebhook_Ntfy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Weather Arb: NYC", r.Header.Get("Title"))
		assert.Equal(t, "high", r.Header.Get("Priority"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "BUY_NO T | Edge: 4.0%", string(body))
	}))
	defer srv.Close()

	// La detección de ntfy mira la URL completa.
	err := notify.NewWebhook(srv.URL+"/ntfy.sh/weather-arb", time.Second).Send(context.Background(), "Weather Arb: NYC", "BUY_NO T | Edge: 4.0%")
	assert.NoError(t, err)
}

func TestWebhook_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := notify.NewWebhook(srv.URL, time.Second).Send(context.Background(), "t", "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

// --- Telegram ---

func TestTelegram_Send(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/bottest-token/getMe":
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"arb","username":"arb_bot"}}`))
		case "/bottest-token/sendMessage":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "42", r.FormValue("chat_id"))
			assert.Equal(t, "MarkdownV2", r.FormValue("parse_mode"))
			sent = append(sent, r.FormValue("text"))
			w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	tg, err := notify.NewTelegramWithEndpoint("test-token", "42", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "telegram", tg.Name())

	require.NoError(t, tg.Send(context.Background(), "Weather Arb: NYC", "BUY_NO KXHIGHNY-26JAN19-T85 | Edge: 4.0%"))
	require.Len(t, sent, 1)
	assert.Equal(t, "*Weather Arb: NYC*\nBUY\\_NO KXHIGHNY\\-26JAN19\\-T85 \\| Edge: 4\\.0%", sent[0])
}

func TestTelegram_InvalidChatID(t *testing.T) {
	_, err := notify.NewTelegramWithEndpoint("tok", "not-a-number", "http://127.0.0.1:1/bot%s/%s", http.DefaultClient)
	assert.Error(t, err)
}
