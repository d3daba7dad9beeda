package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/constants"
	"github.com/gstdnetwork/go-compute-bridge/models"
	"golang.org/x/sync/singleflight"
)

// Session owns the connection to the bridge service: base URL, auth
// headers and the ephemeral session token. The token is the only mutable
// state shared across concurrent task lifecycles; refreshes collapse
// through a single-flight group so concurrent callers never race to
// re-initialize redundantly.
type Session struct {
	apiUrl        string
	clientId      string
	walletAddress string
	apiKey        string

	httpClient *http.Client
	initGroup  singleflight.Group

	mu          sync.RWMutex
	token       string
	initialized bool
}

func NewSession(apiUrl, clientId, walletAddress, apiKey string, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Session{
		apiUrl:        apiUrl,
		clientId:      clientId,
		walletAddress: walletAddress,
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Init establishes or refreshes the session token and returns the peer's
// advertised bridge health and liquidity snapshot. Safe to call multiple
// times; concurrent calls share one request. The shared request runs
// detached from any single caller's context, bounded by the http client
// timeout, so a cancelled caller cannot fail the flight for the rest.
func (s *Session) Init(ctx context.Context) (*models.SessionInfo, error) {
	ch := s.initGroup.DoChan("init", func() (interface{}, error) {
		return s.doInit(context.Background())
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.SessionInfo), nil
	}
}

func (s *Session) doInit(ctx context.Context) (*models.SessionInfo, error) {
	logs.GetLogger().Infof("initializing bridge session, client: %s", s.clientId)

	statusCode, body, err := s.do(ctx, http.MethodPost, "/bridge/init", models.InitRequest{
		ClientId:     s.clientId,
		ClientWallet: s.walletAddress,
		ApiKey:       s.apiKey,
	})
	if err != nil {
		return nil, err
	}

	if statusCode != http.StatusOK {
		errBody := parseErrorBody(body)
		return nil, connectivityErr(fmt.Sprintf("bridge init failed, status code: %d, message: %s", statusCode, errBody.Message), nil)
	}

	var info models.SessionInfo
	if err = json.Unmarshal(body, &info); err != nil {
		return nil, connectivityErr("failed parse init response", err)
	}

	s.mu.Lock()
	s.token = info.SessionToken
	s.initialized = true
	s.mu.Unlock()

	logs.GetLogger().Infof("bridge session established, workers online: %d, available gstd: %.4f",
		info.BridgeStatus.ActiveWorkers, info.Liquidity.AvailableGstd)
	return &info, nil
}

func (s *Session) ensureInit(ctx context.Context) error {
	if s.Initialized() {
		return nil
	}
	_, err := s.Init(ctx)
	return err
}

func (s *Session) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) ClientId() string {
	return s.clientId
}

func (s *Session) WalletAddress() string {
	return s.walletAddress
}

// Close invalidates the session token and releases the idle connections
// held by the underlying transport.
func (s *Session) Close() {
	s.mu.Lock()
	s.token = ""
	s.initialized = false
	s.mu.Unlock()
	s.httpClient.CloseIdleConnections()
}

// do performs one request round-trip and returns the raw status code and
// body. Transport failures are classified as connectivity errors and not
// retried at this layer.
func (s *Session) do(ctx context.Context, method, path string, reqBody interface{}) (int, []byte, error) {
	var reader io.Reader
	if reqBody != nil {
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return 0, nil, fmt.Errorf("failed convert to json, error: %w", err)
		}
		reader = bytes.NewBuffer(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.apiUrl+path, reader)
	if err != nil {
		return 0, nil, connectivityErr("failed create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "GSTD-Bridge/"+s.clientId)
	if s.apiKey != "" {
		req.Header.Set(constants.HEADER_API_KEY, s.apiKey)
	}
	if token := s.Token(); token != "" {
		req.Header.Set(constants.HEADER_SESSION, token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		return 0, nil, connectivityErr("request failed: "+path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, connectivityErr("failed read response body", err)
	}
	return resp.StatusCode, body, nil
}

func parseErrorBody(body []byte) models.ErrorBody {
	var errBody models.ErrorBody
	if err := json.Unmarshal(body, &errBody); err != nil {
		errBody.Message = string(body)
	}
	return errBody
}
