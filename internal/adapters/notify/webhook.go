package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Webhook envía alertas por HTTP POST. Las URLs de ntfy.sh reciben el
// mensaje en texto plano con cabeceras Title y Priority; el resto un JSON
// {"title", "message"}.
type Webhook struct {
	url  string
	ntfy bool
	http *http.Client
}

// NewWebhook crea el sink para url.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:  url,
		ntfy: strings.Contains(url, "ntfy.sh"),
		http: &http.Client{Timeout: timeout},
	}
}

func (w *Webhook) Name() string { return "webhook" }

// Send hace un único POST; sin reintentos.
func (w *Webhook) Send(ctx context.Context, title, message string) error {
	var (
		body        []byte
		contentType string
	)
	if w.ntfy {
		body = []byte(message)
		contentType = "text/plain; charset=utf-8"
	} else {
		b, err := json.Marshal(map[string]string{"title": title, "message": message})
		if err != nil {
			return fmt.Errorf("notify.Webhook.Send: encode: %w", err)
		}
		body = b
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify.Webhook.Send: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if w.ntfy {
		req.Header.Set("Title", title)
		req.Header.Set("Priority", "high")
	}

	resp, err := w.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Webhook.Send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:errcheck

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify.Webhook.Send: status %d", resp.StatusCode)
	}
	return nil
}
