package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-invoker/framework/app"
	"github.com/km-arc/go-invoker/framework/config"
	"github.com/km-arc/go-invoker/framework/container"
	"github.com/km-arc/go-invoker/framework/dto"
	"github.com/km-arc/go-invoker/framework/invoker/rules"
)

// demoRules is the chain used when INVOKER_RULES and INVOKER_CONFIG are unset.
var demoRules = []string{
	rules.IdIntegerTypeID,
	rules.FlexibleSignatureID,
	rules.TypeHintContainerID,
	rules.MakeDtoID,
	rules.NullTypeID,
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFiles []string

	root := &cobra.Command{
		Use:          "go-invoker",
		Short:        "HTTP handlers of any signature, with arguments resolved by a rule chain",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load (default .env)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the demo HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(envFiles)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Run(ctx)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule chain and DTO factory mapping",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(envFiles)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			builtin := rules.Builtin()
			for i, id := range a.Resolver().Rules() {
				source := "container"
				if _, ok := builtin[id]; ok && !a.Bound(id) {
					source = "builtin"
				}
				fmt.Fprintf(out, "%d. %s (%s)\n", i+1, id, source)
			}
			if m, ok := container.TryResolve[dto.FactoryMap](a.Container, dto.FactoriesKey); ok {
				for name, id := range m {
					fmt.Fprintf(out, "dto %s -> %s\n", name, id)
				}
			}
			return nil
		},
	})

	return root
}

// bootstrap loads the configuration, registers the demo services and
// routes, and boots the application.
func bootstrap(envFiles []string) (*app.Application, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if len(cfg.Invoker.Rules) == 0 {
		cfg.Invoker.Rules = demoRules
	}
	if len(cfg.Invoker.DTOFactories) == 0 {
		cfg.Invoker.DTOFactories = map[string]string{"userDto": UserUpdateFactory}
	}

	a := app.New(cfg, &DemoServiceProvider{})
	if err := a.Boot(); err != nil {
		return nil, err
	}
	registerRoutes(a.Router())
	return a, nil
}
