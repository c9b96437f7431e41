package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/polbel-next/internal/cache"
	"github.com/polbel-next/internal/cart"
	"github.com/polbel-next/internal/client"
	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const sessionKey = "polbel_session"

// session 登录后保存在本地的凭据
type session struct {
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at"`
}

// app 命令共享的运行时状态
type app struct {
	cfgFile string
	token   string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "polbel",
		Short: "PolBel shop client: cart, checkout and order administration",
		Long: `polbel talks to the PolBel API.

The cart lives on this machine and survives between runs. Checkout sends
the whole cart as one order and empties it once the API accepts it.

Examples:
  polbel products
  polbel cart add piasek-plukany 2
  polbel checkout --name "Jan Kowalski" --phone 600100200 --address "ul. Polna 1"
  polbel login --email admin@example.com --password ...
  polbel orders status 12 confirmed`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default: ./config.yml if present)")
	flags.String("api", "", "API base URL, e.g. http://localhost:3001/api")
	flags.String("cart-dir", "", "directory for the local cart file")
	flags.String("storage", "", "cart storage: file, redis or memory")
	flags.String("cart-key", "", "cart storage key")
	flags.StringVar(&a.token, "token", "", "admin bearer token (overrides saved login)")

	root.AddCommand(
		newProductsCmd(a),
		newCartCmd(a),
		newCheckoutCmd(a),
		newLoginCmd(a),
		newOrdersCmd(a),
	)
	return root
}

var flagBindings = map[string]string{
	"cart.api_url": "api",
	"cart.dir":     "cart-dir",
	"cart.storage": "storage",
	"cart.key":     "cart-key",
}

func (a *app) load(cmd *cobra.Command) error {
	v := config.New()
	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", a.cfgFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}
	for key, name := range flagBindings {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	cfg, err := config.Decode(v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger.Init("release", logger.Options{
		Level:    "warn",
		Dir:      filepath.Join(cfg.Cart.Dir, "logs"),
		Filename: "polbel.log",
	})
	return nil
}

func (a *app) storage() (cart.Storage, error) {
	switch strings.ToLower(strings.TrimSpace(a.cfg.Cart.Storage)) {
	case "", "file":
		return cart.NewFileStorage(a.cfg.Cart.Dir), nil
	case "memory":
		return cart.NewMemoryStorage(), nil
	case "redis":
		redisCfg := a.cfg.Redis
		redisCfg.Enabled = true
		if err := cache.InitRedis(&redisCfg); err != nil {
			return nil, err
		}
		client := cache.Client()
		if client == nil {
			return nil, fmt.Errorf("redis cart storage unavailable")
		}
		return cart.NewRedisStorage(client, redisCfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown cart storage %q", a.cfg.Cart.Storage)
	}
}

func (a *app) openCart(ctx context.Context) (*cart.Store, error) {
	storage, err := a.storage()
	if err != nil {
		return nil, err
	}
	return cart.New(ctx, storage, a.cfg.Cart.Key)
}

// client 构造 API 客户端；--token 优先，其次是本地保存的登录
func (a *app) client(ctx context.Context) *client.Client {
	c := client.New(a.cfg.Cart.APIURL)
	token := strings.TrimSpace(a.token)
	if token == "" {
		if saved, err := a.loadSession(ctx); err == nil && saved != nil {
			token = saved.Token
		}
	}
	if token != "" {
		c.SetToken(token)
	}
	return c
}

func (a *app) sessionStorage() cart.Storage {
	return cart.NewFileStorage(a.cfg.Cart.Dir)
}

func (a *app) saveSession(ctx context.Context, s session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return a.sessionStorage().Save(ctx, sessionKey, raw)
}

func (a *app) loadSession(ctx context.Context) (*session, error) {
	raw, err := a.sessionStorage().Load(ctx, sessionKey)
	if err != nil || len(raw) == 0 {
		return nil, err
	}
	var s session
	if err := json.Unmarshal(raw, &s); err != nil {
		logger.Warnw("cli_session_corrupt", "error", err)
		return nil, nil
	}
	return &s, nil
}
