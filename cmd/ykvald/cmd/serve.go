package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"

	"github.com/timhilliard/yubistack/internal/clientstore"
	"github.com/timhilliard/yubistack/internal/config"
	"github.com/timhilliard/yubistack/internal/counterstore"
	"github.com/timhilliard/yubistack/internal/ksm"
	"github.com/timhilliard/yubistack/internal/queuestore"
	"github.com/timhilliard/yubistack/internal/sync"
	"github.com/timhilliard/yubistack/internal/transport/httpapi"
	"github.com/timhilliard/yubistack/internal/validator"
)

func newServeCmd(logger log.Logger, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the validation daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), logger, *configFile)
		},
	}
}

func runServe(ctx context.Context, logger log.Logger, configFile string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	counters, err := counterstore.New(counterstore.DefaultConfig(cfg.Database), logger)
	if err != nil {
		return fmt.Errorf("serve: counterstore: %w", err)
	}
	defer counters.Close()

	if err := counters.InitSchema(ctx); err != nil {
		return fmt.Errorf("serve: init schema: %w", err)
	}

	queue := queuestore.New(counters.DB())
	clients := clientstore.New(counters.DB())

	decryptor := buildDecryptor(cfg)

	engine := sync.NewEngine(counters, queue, cfg.SyncTimeout, logger)

	vCfg := validator.DefaultConfig()
	vCfg.DefaultSyncLevel = cfg.DefaultSyncLevel
	vCfg.TSSec = cfg.TSSec
	vCfg.TSRelTolerance = cfg.TSRelTolerance
	vCfg.TSAbsTolerance = cfg.TSAbsTolerance

	v := validator.New(clients, counters, decryptor, engine, sync.Siblings(cfg.Siblings), logger, vCfg)

	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = cfg.HTTPHost
	httpCfg.Port = cfg.HTTPPort
	httpCfg.RateLimitRPS = cfg.RateLimitRPS
	httpCfg.CORSOrigins = cfg.CORSOrigins

	server := httpapi.NewServer(httpCfg, v, engine, logger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.Start(runCtx)
}

// buildDecryptor wires C3 per spec §6 USE_NATIVE_YKKSM: the native AES
// decryptor, the remote KSM decryptor, or both via MultiDecryptor when
// both are configured. With neither configured, every Decrypt call fails
// with BACKEND_ERROR.
func buildDecryptor(cfg config.Config) ksm.Decryptor {
	var native *ksm.AESDecryptor
	if cfg.UseNativeKSM {
		native = ksm.NewAESDecryptor(cfg.AESKeys)
	}

	var remote *ksm.RemoteDecryptor
	if len(cfg.KSMServers) > 0 {
		remote = ksm.NewRemoteDecryptor(cfg.KSMServers, 5*time.Second)
	}

	switch {
	case native != nil && remote != nil:
		return &ksm.MultiDecryptor{Native: native, Remote: remote}
	case native != nil:
		return native
	case remote != nil:
		return remote
	default:
		return &ksm.MultiDecryptor{}
	}
}
