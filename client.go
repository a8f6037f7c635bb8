package chatsdk

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// defaultOperationTimeout bounds how long a correlated command waits for its
// postback before failing with a TimeoutError.
const defaultOperationTimeout = 30 * time.Second

// Config identifies the brand, channel and socket endpoint to connect to.
type Config struct {
	// SocketURL is the websocket endpoint.
	SocketURL string
	// BrandID is the numeric tenant id.
	BrandID int
	// ChannelID is the chat channel id.
	ChannelID string
	// Channel is the channel configuration (feature flags, pre-chat survey).
	// The server may replace it during authorization.
	Channel ChannelConfiguration
}

// Client is the entry point of the SDK. It orchestrates the transport, the
// codec, the correlation registry, the dispatcher and the thread store into
// the session lifecycle: connect, authorize, ready, reconnect with backoff,
// sign out.
type Client struct {
	cfg       Config
	transport Transport
	registry  *Registry
	store     *ThreadStore
	delegate  ChatDelegate
	storage   ValueStore
	auth      Authenticator
	logger    *slog.Logger

	opTimeout     time.Duration
	maxReconnects uint64

	sessionMu sync.RWMutex
	session   ConnectionSession

	// runCancel tears down the whole connection run: every pump started for
	// it and the reconnect loop share the one context, so sign-out stops
	// them all regardless of how many reconnect attempts happened.
	runMu     sync.Mutex
	runCancel context.CancelFunc
	workers   sync.WaitGroup
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default websocket transport.
func WithTransport(t Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithDelegate registers the notification receiver.
func WithDelegate(d ChatDelegate) Option {
	return func(c *Client) { c.delegate = d }
}

// WithStorage injects the persisted-state collaborator. Defaults to an
// in-memory store.
func WithStorage(s ValueStore) Option {
	return func(c *Client) { c.storage = s }
}

// WithAuthenticator injects the OAuth collaborator, required when the channel
// configuration demands authorized sessions.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) { c.auth = a }
}

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithOperationTimeout sets the per-operation postback deadline.
func WithOperationTimeout(d time.Duration) Option {
	return func(c *Client) { c.opTimeout = d }
}

// WithMaxReconnects caps consecutive automatic reconnection attempts before
// the client gives up and surfaces a fatal connection-lost notification.
func WithMaxReconnects(n uint64) Option {
	return func(c *Client) { c.maxReconnects = n }
}

// NewClient creates a Client for the given configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:           cfg,
		delegate:      NoopDelegate{},
		storage:       NewMemoryStore(),
		opTimeout:     defaultOperationTimeout,
		maxReconnects: 5,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = discardLogger()
	}
	if c.transport == nil {
		c.transport = NewWebSocketTransport(c.logger)
	}

	c.registry = NewRegistry(c.logger)
	c.store = NewThreadStore()

	c.session = ConnectionSession{
		BrandID:   cfg.BrandID,
		ChannelID: cfg.ChannelID,
		Config:    cfg.Channel,
		Status:    StatusDisconnected,
	}
	if visitor, ok := c.storage.Get(StorageKeyVisitorID); ok {
		c.session.VisitorID = visitor
	} else {
		c.session.VisitorID = uuid.NewString()
		c.storage.Set(StorageKeyVisitorID, c.session.VisitorID)
	}
	if customer, ok := c.storage.Get(StorageKeyCustomerID); ok {
		c.session.CustomerIdentity.IDOnExternalPlatform = customer
	} else {
		c.session.CustomerIdentity.IDOnExternalPlatform = uuid.NewString()
		c.storage.Set(StorageKeyCustomerID, c.session.CustomerIdentity.IDOnExternalPlatform)
	}
	if refresh, ok := c.storage.Get(StorageKeyRefreshToken); ok {
		c.session.RefreshToken = refresh
	}

	return c
}

// Session returns a snapshot of the connection session.
func (c *Client) Session() ConnectionSession {
	c.sessionMu.RLock()
	defer c.sessionMu.RUnlock()
	return c.session
}

// Status returns the aggregate connection status.
func (c *Client) Status() ConnectionStatus {
	return c.Session().Status
}

// Threads returns snapshots of all threads held in memory.
func (c *Client) Threads() []ChatThread {
	return c.store.Threads()
}

// Thread returns a snapshot of one thread.
func (c *Client) Thread(id string) (ChatThread, bool) {
	return c.store.Thread(id)
}

// Connect establishes the socket connection and authorizes the customer:
// with an OAuth code from the authenticator when the channel requires
// authorization, with a stored token when reconnecting, anonymously
// otherwise. It returns once the session is ready.
func (c *Client) Connect(ctx context.Context) error {
	c.setStatus(StatusConnecting)
	if err := c.transport.Connect(ctx, c.cfg.SocketURL); err != nil {
		c.setStatus(StatusDisconnected)
		return err
	}
	c.setStatus(StatusConnected)

	c.runMu.Lock()
	if c.runCancel != nil {
		c.runCancel()
	}
	runCtx, cancel := context.WithCancel(context.Background())
	c.runCancel = cancel
	c.runMu.Unlock()

	c.startPump(runCtx)

	if err := c.authorize(ctx); err != nil {
		c.setStatus(StatusDisconnected)
		_ = c.transport.Close(websocket.CloseNormalClosure, "authorization failed")
		return err
	}
	c.setStatus(StatusReady)
	return nil
}

// authorize runs the register flow appropriate to the session state.
func (c *Client) authorize(ctx context.Context) error {
	c.setStatus(StatusAuthorizing)

	session := c.Session()
	if session.RefreshToken != "" {
		if err := c.reconnectWithToken(ctx, session.RefreshToken); err == nil {
			return nil
		}
		// Stored token rejected: fall through to a fresh flow.
		c.logger.Warn("stored token rejected, falling back to fresh authorization")
		c.clearTokens()
	}

	data := authorizeCustomerData{}
	if c.Session().Config.IsAuthorizationEnabled {
		if c.auth == nil {
			return NewValidationError("authenticator", "channel requires authorization but no authenticator is configured")
		}
		code, verifier, err := c.auth.AuthorizationCode(ctx)
		if err != nil {
			return fmt.Errorf("obtain authorization code: %w", err)
		}
		data.AuthorizationCode = code
		data.CodeVerifier = verifier
	}

	outcome, err := c.sendCorrelated(ctx, EventAuthorizeCustomer, data)
	if err != nil {
		return err
	}
	if p, ok := outcome.Payload.(*CustomerAuthorizedPayload); ok {
		c.applyAuthorization(p)
	}
	return nil
}

// reconnectWithToken authorizes using a stored refresh token.
func (c *Client) reconnectWithToken(ctx context.Context, token string) error {
	data := reconnectCustomerData{}
	data.AccessToken.Token = token
	outcome, err := c.sendCorrelated(ctx, EventReconnectCustomer, data)
	if err != nil {
		return err
	}
	if p, ok := outcome.Payload.(*CustomerAuthorizedPayload); ok {
		c.applyAuthorization(p)
	}
	return nil
}

// applyAuthorization folds the authorization result into the session under
// the single-writer lock and persists the token pair.
func (c *Client) applyAuthorization(p *CustomerAuthorizedPayload) {
	c.sessionMu.Lock()
	if p.ConsumerIdentity.IDOnExternalPlatform != "" {
		c.session.CustomerIdentity = p.ConsumerIdentity
	}
	if p.Channel != nil {
		c.session.Config = *p.Channel
	}
	if p.AccessToken != nil {
		token := accessTokenFromWire(*p.AccessToken)
		c.session.Token = &token
		c.session.RefreshToken = p.AccessToken.Token
	}
	c.sessionMu.Unlock()

	if p.AccessToken != nil {
		c.storage.Set(StorageKeyAccessToken, p.AccessToken.Token)
		c.storage.Set(StorageKeyRefreshToken, p.AccessToken.Token)
	}
	if p.ConsumerIdentity.IDOnExternalPlatform != "" {
		c.storage.Set(StorageKeyCustomerID, p.ConsumerIdentity.IDOnExternalPlatform)
	}
}

// startPump launches the dispatch worker over the current transport stream
// and arms the disconnect handler. The context is the run context created at
// Connect; canceling it silences the disconnect handler.
func (c *Client) startPump(ctx context.Context) {
	dispatcher := NewDispatcher(c.registry, c.store, c.delegate, c.logger)
	dispatcher.onAuthorized = c.applyAuthorization
	dispatcher.onTokenRefreshed = c.applyRefreshedToken

	frames := c.transport.Receive()
	c.workers.Add(1)
	go func() {
		defer c.workers.Done()
		err := dispatcher.Run(frames)
		lost := NewConnectionLostError(err)
		c.registry.RejectAll(lost)
		if err == nil || ctx.Err() != nil {
			// Clean closure or deliberate local shutdown.
			return
		}
		c.handleDisconnect(ctx, err)
	}()
}

// applyRefreshedToken handles the TokenRefreshed push.
func (c *Client) applyRefreshedToken(w AccessTokenWire) {
	c.sessionMu.Lock()
	token := accessTokenFromWire(w)
	c.session.Token = &token
	c.session.RefreshToken = w.Token
	c.sessionMu.Unlock()

	c.storage.Set(StorageKeyAccessToken, w.Token)
	c.storage.Set(StorageKeyRefreshToken, w.Token)
}

// handleDisconnect drives reconnect-with-backoff after an unexpected
// closure. It gives up after the configured number of consecutive failures
// and surfaces a fatal connection-lost notification instead of retrying
// forever.
func (c *Client) handleDisconnect(ctx context.Context, cause error) {
	c.setStatus(StatusConnecting)
	c.delegate.OnConnectionLost(cause, false)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0

	attempt := func() error {
		if err := c.transport.Connect(ctx, c.cfg.SocketURL); err != nil {
			return err
		}
		c.startPump(ctx)
		if err := c.authorize(ctx); err != nil {
			_ = c.transport.Close(websocket.CloseNormalClosure, "reauthorization failed")
			return err
		}
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxReconnects), ctx))
	if err != nil {
		if ctx.Err() != nil {
			// Sign-out canceled the run; it owns the shutdown.
			return
		}
		c.setStatus(StatusDisconnected)
		c.delegate.OnConnectionLost(err, true)
		return
	}
	c.setStatus(StatusReady)
	c.delegate.OnReconnected()
}

// SignOut closes the connection, rejects every pending operation, clears the
// session and thread state, and purges persisted tokens. Synchronous from
// the caller's perspective.
func (c *Client) SignOut() {
	c.setStatus(StatusClosing)

	c.runMu.Lock()
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	c.runMu.Unlock()

	_ = c.transport.Close(websocket.CloseNormalClosure, "sign out")
	// Wait for every pump and any in-flight reconnect loop to wind down
	// before clearing state, so nothing repopulates it afterwards.
	c.workers.Wait()
	c.registry.RejectAll(NewConnectionLostError(nil))
	c.store.Clear()

	c.sessionMu.Lock()
	c.session = ConnectionSession{
		BrandID:   c.cfg.BrandID,
		ChannelID: c.cfg.ChannelID,
		Config:    c.cfg.Channel,
		Status:    StatusDisconnected,
	}
	c.sessionMu.Unlock()

	c.storage.Purge()
}

// setStatus transitions the session status under the single-writer lock.
func (c *Client) setStatus(status ConnectionStatus) {
	c.sessionMu.Lock()
	c.session.Status = status
	c.sessionMu.Unlock()
}

// refreshExpiredToken renews the token pair when the access token has lapsed.
// A failed renewal is logged and the send proceeds; the server rejects stale
// tokens on its own authority.
func (c *Client) refreshExpiredToken(ctx context.Context) {
	session := c.Session()
	if session.Token == nil || !session.Token.IsExpired() || session.RefreshToken == "" {
		return
	}
	if err := c.RefreshToken(ctx); err != nil {
		c.logger.Warn("token refresh before send failed", "err", err)
	}
}

// send encodes and transmits one envelope without correlation
// (fire-and-forget).
func (c *Client) send(ctx context.Context, env OutboundEnvelope) error {
	// Register commands carry or establish the token pair themselves.
	if env.Action == ActionChatWindowEvent {
		c.refreshExpiredToken(ctx)
	}
	data, err := EncodeCommand(env)
	if err != nil {
		return err
	}
	return c.transport.Send(ctx, data)
}

// sendCorrelated transmits one envelope and awaits its postback, bounded by
// the operation timeout. Caller cancellation abandons the wait locally; the
// command already on the wire stays sent.
func (c *Client) sendCorrelated(ctx context.Context, eventType EventType, data interface{}) (DecodedEvent, error) {
	env, err := c.buildEnvelope(eventType, data)
	if err != nil {
		return DecodedEvent{}, err
	}

	outcome, err := c.registry.Register(env.EventID, c.opTimeout)
	if err != nil {
		return DecodedEvent{}, err
	}

	if err := c.send(ctx, env); err != nil {
		c.registry.Cancel(env.EventID)
		return DecodedEvent{}, err
	}

	select {
	case result := <-outcome:
		if result.Err != nil {
			return DecodedEvent{}, result.Err
		}
		return result.Event, nil
	case <-ctx.Done():
		c.registry.Cancel(env.EventID)
		return DecodedEvent{}, ctx.Err()
	}
}
