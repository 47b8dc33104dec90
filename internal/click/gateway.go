package click

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"click-merchant/internal/config"
	"click-merchant/internal/logger"

	"github.com/spf13/cast"
	"go.uber.org/zap"
)

const DefaultEndpoint = "https://api.click.uz/v2/merchant/"

// Reply is a decoded gateway response. error_code 0 means success.
type Reply map[string]any

// ErrorCode defaults to -1 when the gateway omitted it.
func (r Reply) ErrorCode() int {
	v, ok := r["error_code"]
	if !ok || v == nil {
		return -1
	}
	return cast.ToInt(v)
}

// Note returns error_note, or nil so the column is cleared when absent.
func (r Reply) Note() any {
	return r.value("error_note")
}

func (r Reply) value(key string) any {
	v, ok := r[key]
	if !ok || v == nil {
		return nil
	}
	return cast.ToString(v)
}

// Gateway sends one signed request to the merchant API. A non-200 answer
// is returned as *Error and carries no body.
type Gateway interface {
	Send(ctx context.Context, method, path string, body any) (Reply, error)
}

type httpGateway struct {
	endpoint   string
	userID     string
	secretKey  string
	httpClient *http.Client
	now        func() time.Time
}

// NewGateway builds the REST client for one service. A nil client gets a
// 15 second timeout.
func NewGateway(endpoint string, creds config.Service, client *http.Client) Gateway {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	return &httpGateway{
		endpoint:   strings.TrimRight(endpoint, "/") + "/",
		userID:     creds.UserID,
		secretKey:  creds.SecretKey,
		httpClient: client,
		now:        time.Now,
	}
}

// authHeader is "user_id:sha1(timestamp+secret):timestamp".
func (g *httpGateway) authHeader() string {
	ts := strconv.FormatInt(g.now().Unix(), 10)
	sum := sha1.Sum([]byte(ts + g.secretKey))
	return fmt.Sprintf("%s:%s:%s", g.userID, hex.EncodeToString(sum[:]), ts)
}

func (g *httpGateway) Send(ctx context.Context, method, path string, body any) (Reply, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("method", method),
		zap.String("path", path),
	)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal click request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.endpoint+strings.TrimLeft(path, "/"), reader)
	if err != nil {
		return nil, fmt.Errorf("build click request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Auth", g.authHeader())

	log.Debug("sending request to click")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, NewError(ErrInsufficientPrivilege, err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read click response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(ErrInsufficientPrivilege, reasonPhrase(resp))
	}

	reply := Reply{}
	if err := json.Unmarshal(raw, &reply); err != nil {
		log.Debug("click returned a non-object body", zap.ByteString("response", raw))
		reply = Reply{}
	}

	log.Debug("click replied", zap.Int("error_code", reply.ErrorCode()))
	return reply, nil
}

func reasonPhrase(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); reason != "" {
		return reason
	}
	return http.StatusText(resp.StatusCode)
}
