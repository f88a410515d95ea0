// Command ecool 运行 Evaporative Cooling 特征选择。
//
//	ecool run -c ec.yaml --ec-num-target 100 --out-files-prefix results/run1
//	ecool version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/rushteam/ecool/config/builders"
)

// version 由 -ldflags "-X main.version=..." 注入
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ecool",
		Short: "Evaporative Cooling feature selection",
		Long: `ecool fuses a main effect ranking (Random Jungle) and an interaction
ranking (Relief-F) into a free energy score and repeatedly evaporates the
worst attributes until the target number remains.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ecool version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ecool %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ecool:", err)
		os.Exit(1)
	}
}
