package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rushteam/itemsim/config"
	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/similar"
)

func newSimilarCmd(configPath *string) *cobra.Command {
	var (
		itemID int64
		limit  int
		scores bool
	)
	cmd := &cobra.Command{
		Use:   "similar",
		Short: "Print the similar items of one product as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.engine.Recommend(ctx, similar.Request{
				ItemID:        core.ItemID(itemID),
				Limit:         limit,
				IncludeScores: scores,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}
	cmd.Flags().Int64Var(&itemID, "item", 0, "base item id")
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results (0 uses engine.default_limit)")
	cmd.Flags().BoolVar(&scores, "scores", false, "include component scores")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

// warm 预先计算并写入结果缓存；开启指标时在结束后保持 /metrics 可抓取直到收到信号。
func newWarmCmd(configPath *string) *cobra.Command {
	var (
		limit int
		hold  bool
	)
	cmd := &cobra.Command{
		Use:   "warm ITEM_ID...",
		Short: "Precompute similar items into the result cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]core.ItemID, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q: %w", arg, err)
				}
				ids = append(ids, core.ItemID(id))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var failed int
			for _, id := range ids {
				list, err := a.engine.GetSimilarItems(ctx, id, limit)
				if err != nil {
					failed++
					a.logger.Error().Err(err).Int64("item_id", int64(id)).Msg("warm failed")
					continue
				}
				a.logger.Info().Int64("item_id", int64(id)).Int("results", len(list)).Msg("warmed")
			}

			if hold && a.metricsServer != nil {
				a.logger.Info().Str("addr", a.metricsServer.Addr).Msg("serving metrics until interrupted")
				<-ctx.Done()
			}
			if failed > 0 {
				return fmt.Errorf("warm: %d of %d items failed", failed, len(ids))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results (0 uses engine.default_limit)")
	cmd.Flags().BoolVar(&hold, "hold", false, "keep serving metrics after warming")
	return cmd
}

func newConfigCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate and print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			redact(&cfg.Redis.Password)
			redact(&cfg.Feast.Token)
			redact(&cfg.Catalog.DSN)
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func redact(s *string) {
	if *s != "" {
		*s = "******"
	}
}

func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}
