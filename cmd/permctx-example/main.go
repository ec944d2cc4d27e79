// A minimal example of embedding the library directly: build a registry in
// code, register a few calculators and resolve a subject's contexts.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/permkit/permctx/pkg/calculator"
	"github.com/permkit/permctx/pkg/calculator/adapters/static"
	"github.com/permkit/permctx/pkg/config"
	"github.com/permkit/permctx/pkg/contextset"
	"github.com/permkit/permctx/pkg/log"
	"github.com/permkit/permctx/pkg/manager"
	"github.com/permkit/permctx/pkg/subject"
)

func main() {
	log.Setup(log.Config{
		Level:  log.InfoLevel,
		Format: log.TextFormat,
	})

	cfg := config.Default()
	cfg.Static.Server = "survival"

	registry := calculator.NewRegistry()

	// The static calculator contributes server=survival on every lookup.
	registry.RegisterStatic(static.New(cfg.Static.Server, nil))

	// A per-subject calculator: anyone named "steve" is in creative mode.
	registry.Register(calculator.Func(func(_ context.Context, sub subject.Subject, acc *contextset.Mutable) (*contextset.Mutable, error) {
		mode := "survival"
		if sub.FriendlyName() == "steve" {
			mode = "creative"
		}
		if err := acc.Add("gamemode", mode); err != nil {
			return nil, err
		}
		return acc, nil
	}))

	mgr, err := manager.New(registry, &cfg, manager.DefaultConfig())
	if err != nil {
		log.Error("Failed to create context manager", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	for _, name := range []string{"steve", "alex"} {
		sub := subject.New(name)
		result, err := mgr.ApplicableContexts(ctx, sub)
		if err != nil {
			log.Error("Lookup failed", "subject", name, "error", err)
			os.Exit(1)
		}

		fmt.Printf("%s:\n", name)
		for _, pair := range result.ContextSet().Pairs() {
			fmt.Printf("  %s = %s\n", pair.Key, pair.Value)
		}
		fmt.Printf("  op=%v include-global=%v\n", result.Op(), result.IncludeGlobalPerms())
	}

	if str, ok := mgr.StaticContextString(ctx); ok {
		fmt.Println("static:", str)
	}
}
