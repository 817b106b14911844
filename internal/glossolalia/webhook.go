package glossolalia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const insertPath = "api/v0.1/insert/"

var bufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// WebhookSink form-posts messages to an upstream integration engine.
type WebhookSink struct {
	endpoint    string
	serviceType string
	brand       string
	client      *http.Client
}

func NewWebhookSink(baseURL, serviceType, brand string, client *http.Client) *WebhookSink {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookSink{
		endpoint:    baseURL + insertPath,
		serviceType: serviceType,
		brand:       brand,
		client:      client,
	}
}

func (s *WebhookSink) Name() string { return "webhook" }

func (s *WebhookSink) Endpoint() string { return s.endpoint }

func (s *WebhookSink) Send(ctx context.Context, msg *Message) error {
	data, err := msg.Data()
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", msg.Event, err)
	}

	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	// keys in url.Values.Encode order
	writeField(buf, "data", string(data))
	writeField(buf, "event", string(msg.Event))
	writeField(buf, "name", s.brand)
	writeField(buf, "servicetype", s.serviceType)

	body := &pooledBody{Reader: bytes.NewReader(buf.Bytes()), buf: buf}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		_ = body.Close()
		return fmt.Errorf("building request: %w", err)
	}
	req.ContentLength = int64(buf.Len())
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", s.endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("upstream %s returned %d", s.endpoint, resp.StatusCode)
	}
	return nil
}

func writeField(buf *bytes.Buffer, key, value string) {
	if buf.Len() > 0 {
		buf.WriteByte('&')
	}
	buf.WriteString(key)
	buf.WriteByte('=')
	buf.WriteString(url.QueryEscape(value))
}

// pooledBody returns its buffer to the pool once the transport is done
// with it, which can be after Do returns.
type pooledBody struct {
	*bytes.Reader
	buf  *bytes.Buffer
	once sync.Once
}

func (b *pooledBody) Close() error {
	b.once.Do(func() { bufPool.Put(b.buf) })
	return nil
}

func (s *WebhookSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
