// itemsim 命令行：按配置装配目录、缓存、Feast 信号与指标，计算相似商品。
//
//	itemsim similar --item 101 --limit 4 --scores -c itemsim.yaml
//	itemsim warm 101 102 103
//	itemsim config -c itemsim.yaml
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "itemsim",
		Short:         "Similar item recommendations for a product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("ITEMSIM_CONFIG"), "path to YAML config")

	root.AddCommand(
		newSimilarCmd(&configPath),
		newWarmCmd(&configPath),
		newConfigCmd(&configPath),
	)
	return root
}
