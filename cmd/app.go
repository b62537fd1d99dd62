package cmd

import (
	"strings"

	"github.com/nongsanviet/shopcli/internal/api"
	"github.com/nongsanviet/shopcli/internal/auth"
	"github.com/nongsanviet/shopcli/internal/config"
	"github.com/nongsanviet/shopcli/internal/display"
	"github.com/nongsanviet/shopcli/internal/events"
	"github.com/nongsanviet/shopcli/internal/logger"
	"github.com/nongsanviet/shopcli/internal/voucher"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// app bundles what a command needs once config has been resolved.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *api.Client
	tokens *auth.FileStore
	bus    *events.Bus
}

// setupApp loads config, applies flag overrides, and attaches the logger to
// the command context so the API client picks it up.
func setupApp(cmd *cobra.Command) (*app, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, invalidArgsError(err.Error(), "Check SHOPCLI_* environment variables or .env.")
	}
	if flagAPIURL != "" {
		cfg.APIURL = flagAPIURL
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, invalidArgsError(err.Error(), "shopcli --api-url http://localhost:8080")
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	cmd.SetContext(logger.WithContext(cmd.Context(), log))

	tokens := tokenStore(cfg)
	chain := auth.Chain{api.StaticToken(cfg.APIToken)}
	if tokens != nil {
		chain = append(chain, tokens)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		client: api.NewClient(cfg.APIURL, api.WithTimeout(cfg.HTTPTimeout), api.WithTokenSource(chain)),
		tokens: tokens,
		bus:    events.NewBus(),
	}
	a.bus.Subscribe(func(e events.Event) {
		log.Debug().Str("event", events.Name(e)).Msg("event published")
	})
	log.Debug().Str("api_url", cfg.APIURL).Bool("token_file", tokens != nil).Msg("configured")
	return a, nil
}

func tokenStore(cfg *config.Config) *auth.FileStore {
	path := cfg.TokenFile
	if path == "" {
		p, err := auth.DefaultPath()
		if err != nil {
			return nil
		}
		path = p
	}
	return auth.NewFileStore(path)
}

// printToasts echoes bus toasts to stderr in text mode. JSON mode keeps
// stderr for the error payload only.
func (a *app) printToasts(cmd *cobra.Command) {
	if flagJSON {
		return
	}
	a.bus.Subscribe(func(e events.Event) {
		if t, ok := e.(events.Toast); ok {
			display.PrintToast(cmd.ErrOrStderr(), t)
		}
	})
}

func (a *app) reconciler() *voucher.Reconciler {
	return voucher.NewReconciler(a.client, a.bus)
}

// userID prefers --user over SHOPCLI_USER_ID.
func (a *app) userID() string {
	if u := strings.TrimSpace(flagUser); u != "" {
		return u
	}
	return a.cfg.UserID
}

func (a *app) requireUser() (string, error) {
	userID := a.userID()
	if userID == "" {
		return "", invalidArgsError(
			voucher.MsgLoginRequired,
			"shopcli vouchers --user u-123 --amount 250000",
			"export SHOPCLI_USER_ID=u-123",
		)
	}
	return userID, nil
}

func currentCart() api.CartContext {
	return api.CartContext{
		Subtotal:    flagAmount,
		ShopID:      strings.TrimSpace(flagShop),
		ProductIDs:  flagProductIDs,
		CategoryIDs: flagCategoryIDs,
	}
}

// decimalFlag lets pflag parse VND amounts straight into decimals.
type decimalFlag struct {
	target *decimal.Decimal
}

func newDecimalFlag(target *decimal.Decimal) *decimalFlag {
	return &decimalFlag{target: target}
}

func (f *decimalFlag) String() string {
	if f.target == nil {
		return "0"
	}
	return f.target.String()
}

// Set accepts plain numbers with optional _ or , grouping and a trailing ₫/đ/vnd.
func (f *decimalFlag) Set(raw string) error {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, suffix := range []string{"vnd", "₫", "đ"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
	}
	s = strings.NewReplacer("_", "", ",", "").Replace(s)
	v, err := decimal.NewFromString(s)
	if err != nil {
		return err
	}
	*f.target = v
	return nil
}

func (f *decimalFlag) Type() string { return "vnd" }
