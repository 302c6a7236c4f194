package suvclient

import (
	"net/http"

	"github.com/MrEthical07/suvclient/cookiestore"
	internalnotify "github.com/MrEthical07/suvclient/internal/notify"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles a [Client]. A Builder is single use: the second Build
// call fails with [ErrBuilderUsed].
type Builder struct {
	config Config

	httpClient *http.Client
	navigator  Navigator
	redis      redis.UniversalClient
	store      cookiestore.Store
	notifySink NotifySink
	logger     *zap.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBaseURL sets Config.BaseURL.
func (b *Builder) WithBaseURL(raw string) *Builder {
	b.config.BaseURL = raw
	return b
}

// WithHTTPClient supplies the transport settings. The client is copied; its
// Jar is ignored because cookies always come from the cookie store.
func (b *Builder) WithHTTPClient(hc *http.Client) *Builder {
	b.httpClient = hc
	return b
}

// WithNavigator sets the target of login and logout navigations.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithRedis sets the redis client used by the redis cookie store backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCookieStore overrides the store selected by Config.CookieStore.Backend.
func (b *Builder) WithCookieStore(store cookiestore.Store) *Builder {
	b.store = store
	return b
}

// WithNotifySink sets where toasts are delivered. The default logs them.
func (b *Builder) WithNotifySink(sink NotifySink) *Builder {
	b.notifySink = sink
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, ErrBuilderUsed
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- COOKIE STORE --------
	store := b.store
	if store == nil {
		switch cfg.CookieStore.Backend {
		case CookieBackendRedis:
			if b.redis == nil {
				return nil, ErrRedisRequired
			}
			store = cookiestore.NewRedis(
				b.redis,
				cfg.CookieStore.RedisPrefix,
				cfg.CookieStore.DefaultTTL,
				cookiestore.WithLogger(logger.Named("cookiestore")),
			)
		case CookieBackendFile:
			fileStore, err := cookiestore.NewFile(
				cfg.CookieStore.FilePath,
				cfg.CookieStore.DefaultTTL,
				logger.Named("cookiestore"),
			)
			if err != nil {
				return nil, err
			}
			store = fileStore
		default:
			store = cookiestore.NewMemory()
		}
	}

	// -------- TRANSPORT --------
	var proto http.Client
	if b.httpClient != nil {
		proto = *b.httpClient
	} else {
		proto.Timeout = cfg.HTTP.Timeout
	}

	sameOrigin := proto
	sameOrigin.Jar = store
	sameOrigin.CheckRedirect = sameOriginRedirects(base, proto.CheckRedirect)

	crossOrigin := proto
	crossOrigin.Jar = nil

	// -------- NOTIFICATIONS --------
	sink := b.notifySink
	if sink == nil {
		sink = internalnotify.NewZapSink(logger.Named("toast"))
	}
	dispatcher := internalnotify.NewDispatcher(internalnotify.Config{
		Enabled:    cfg.Notify.Enabled,
		BufferSize: cfg.Notify.BufferSize,
		DropIfFull: cfg.Notify.DropIfFull,
	}, sink)

	navigator := b.navigator
	if navigator == nil {
		navigator = NopNavigator{}
	}

	b.built = true

	return &Client{
		config:      cfg,
		base:        base,
		origin:      originOf(base),
		sameOrigin:  &sameOrigin,
		crossOrigin: &crossOrigin,
		store:       store,
		navigator:   navigator,
		notify:      dispatcher,
		metrics:     NewMetrics(cfg.Metrics),
		logger:      logger,
	}, nil
}
