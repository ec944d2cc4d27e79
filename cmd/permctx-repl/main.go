package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterh/liner"

	"github.com/permkit/permctx/pkg/calculator"
	"github.com/permkit/permctx/pkg/log"
	"github.com/permkit/permctx/pkg/permctx"
	"github.com/permkit/permctx/pkg/subject"
)

// Constants for the command-line interface
const (
	cmdHelp        = "!help"
	cmdQuit        = "!quit"
	cmdSubject     = "!subject"
	cmdLookup      = "!lookup"
	cmdContexts    = "!contexts"
	cmdStatic      = "!static"
	cmdStaticStr   = "!staticstr"
	cmdInvalidate  = "!invalidate"
	cmdCalculators = "!calculators"
	cmdConfig      = "!config"
)

// Command-line help text
const helpText = `
permctx REPL - Command Reference:
-----------------------------------------
!help                 - Show this help message
!subject <name>       - Set the current subject
!lookup               - Resolve the current subject's context set
!contexts             - Resolve the full Contexts descriptor for the subject
!static               - Resolve the static (subject-independent) context set
!staticstr            - Render the static context display string
!invalidate           - Invalidate the current subject's cached resolution
!calculators          - List the registered calculators
!config               - Show current configuration
!quit                 - Exit the application

Notes:
- Regular text input is treated as !subject <name> followed by !lookup
- Tab completion is available for commands
- Use up/down arrows for command history
- Lookups within the cache TTL reuse the previous resolution`

// historyFile is the file where command history is stored
const historyFile = ".permctx_history"

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	stdinMode := flag.Bool("s", false, "Read from stdin and exit when complete")
	flag.Parse()

	// Optional .env for PERMCTX_* overrides
	_ = godotenv.Load()

	log.Setup(log.Config{
		Level:  log.InfoLevel,
		Format: log.TextFormat,
	})

	log.Info("Starting permctx REPL")

	lib, err := permctx.NewFromConfig(*configPath)
	if err != nil {
		log.Error("Failed to initialize permctx", "error", err)
		os.Exit(1)
	}
	defer lib.Close()

	runCLI(lib, *stdinMode)
}

// runCLI starts the command-line interface for user interaction
func runCLI(lib *permctx.Library, stdinMode bool) {
	// Subjects keep their identity across lookups so cache behaviour is
	// observable from the REPL.
	subjects := map[string]subject.Simple{}
	current := getSubject(subjects, "default")

	if stdinMode {
		scanner := bufio.NewScanner(os.Stdin)

		fmt.Println("\n=== permctx REPL (stdin mode) ===")
		fmt.Println("Server:", lib.Config().Static.Server)
		fmt.Printf("Current subject: %s\n", current.FriendlyName())

		for scanner.Scan() {
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}

			// Skip comments and shebang lines for stdin-based testing
			if strings.HasPrefix(input, "#") || strings.HasPrefix(input, "//") {
				continue
			}

			if input == cmdQuit {
				fmt.Println("Goodbye!")
				return
			}

			fmt.Printf("permctx::%s> %s\n", current.FriendlyName(), input)
			processCommand(input, lib, subjects, &current)
		}

		if err := scanner.Err(); err != nil {
			fmt.Printf("Error reading stdin: %v\n", err)
		}
		fmt.Println("Goodbye!")
		return
	}

	// Interactive mode
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetMultiLineMode(false)

	line.SetCompleter(func(line string) (c []string) {
		commands := []string{cmdHelp, cmdQuit, cmdSubject, cmdLookup, cmdContexts, cmdStatic, cmdStaticStr, cmdInvalidate, cmdCalculators, cmdConfig}
		for _, cmd := range commands {
			if strings.HasPrefix(cmd, line) {
				c = append(c, cmd)
			}
		}
		return
	})

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Println("\n=== permctx REPL ===")
	fmt.Println("Server:", lib.Config().Static.Server)
	fmt.Printf("Cache TTL: %dms | Max subjects: %d\n", lib.Config().Cache.TTLMillis, lib.Config().Cache.MaxSubjects)
	fmt.Printf("Current subject: %s\n", current.FriendlyName())
	fmt.Println("Type !help for available commands.")

	for {
		input, err := line.Prompt(fmt.Sprintf("permctx::%s> ", current.FriendlyName()))
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println("\nGoodbye!")
				break
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if input == cmdQuit {
			fmt.Println("Goodbye!")
			break
		}

		processCommand(input, lib, subjects, &current)
	}
}

// getSubject returns the stable subject for a name, creating it on first use.
func getSubject(subjects map[string]subject.Simple, name string) subject.Simple {
	if s, ok := subjects[name]; ok {
		return s
	}
	s := subject.New(name)
	subjects[name] = s
	return s
}

// processCommand handles a single command
func processCommand(input string, lib *permctx.Library, subjects map[string]subject.Simple, current *subject.Simple) {
	mgr := lib.Manager()
	ctx := context.Background()

	if !strings.HasPrefix(input, "!") {
		// Plain text: switch subject and look it up
		*current = getSubject(subjects, input)
		printLookup(ctx, lib, *current)
		return
	}

	parts := strings.SplitN(input, " ", 2)
	cmd := parts[0]

	switch cmd {
	case cmdHelp:
		fmt.Println(helpText)

	case cmdSubject:
		if len(parts) == 1 {
			fmt.Printf("Current subject: %s (%s)\n", current.FriendlyName(), current.SubjectID())
			return
		}
		*current = getSubject(subjects, strings.TrimSpace(parts[1]))
		fmt.Printf("Subject set to: %s (%s)\n", current.FriendlyName(), current.SubjectID())

	case cmdLookup:
		printLookup(ctx, lib, *current)

	case cmdContexts:
		result, err := mgr.ApplicableContexts(ctx, *current)
		if err != nil {
			fmt.Printf("Error resolving contexts: %v\n", err)
			return
		}
		fmt.Println(result)
		meta := mgr.FormMetaContexts(result)
		fmt.Printf("Prefix rules: %v | Suffix rules: %v\n", meta.PrefixRules(), meta.SuffixRules())

	case cmdStatic:
		set := mgr.StaticContext(ctx)
		if set.IsEmpty() {
			fmt.Println("Static context is empty")
			return
		}
		for _, pair := range set.Pairs() {
			fmt.Printf("  %s = %s\n", pair.Key, pair.Value)
		}

	case cmdStaticStr:
		str, ok := mgr.StaticContextString(ctx)
		if !ok {
			fmt.Println("Static context is empty")
			return
		}
		fmt.Println(str)

	case cmdInvalidate:
		if err := mgr.InvalidateCache(*current); err != nil {
			fmt.Printf("Error invalidating cache: %v\n", err)
			return
		}
		mgr.InvalidateStaticCache()
		fmt.Printf("Invalidated cached resolutions for %s and the static context\n", current.FriendlyName())

	case cmdCalculators:
		calcs := mgr.Calculators()
		if len(calcs) == 0 {
			fmt.Println("No calculators registered")
		}
		for i, calc := range calcs {
			fmt.Printf("  %d. %s\n", i+1, calculator.Name(calc))
		}
		statics := mgr.StaticCalculators()
		if len(statics) > 0 {
			fmt.Println("Static calculators:")
			for i, calc := range statics {
				fmt.Printf("  %d. %s\n", i+1, calculator.Name(calc))
			}
		}

	case cmdConfig:
		printConfig(lib)

	default:
		fmt.Printf("Unknown command: %s\nType !help for available commands.\n", cmd)
	}
}

// printLookup resolves and prints the subject's context set
func printLookup(ctx context.Context, lib *permctx.Library, sub subject.Simple) {
	set, err := lib.Manager().ApplicableContext(ctx, sub)
	if err != nil {
		fmt.Printf("Error resolving context: %v\n", err)
		return
	}
	if set.IsEmpty() {
		fmt.Printf("No context applies to %s\n", sub.FriendlyName())
		return
	}
	for _, pair := range set.Pairs() {
		fmt.Printf("  %s = %s\n", pair.Key, pair.Value)
	}
}

// printConfig displays the current configuration
func printConfig(lib *permctx.Library) {
	cfg := lib.Config()

	fmt.Println("\nCurrent Configuration:")
	fmt.Println("======================")
	fmt.Printf("Server: %s\n", cfg.Static.Server)
	for k, v := range cfg.Static.Entries {
		fmt.Printf("Static entry: %s = %s\n", k, v)
	}
	fmt.Printf("\nInclude global: %v\n", cfg.Policy.IncludeGlobal)
	fmt.Printf("Include global world: %v\n", cfg.Policy.IncludeGlobalWorld)
	fmt.Printf("Apply global groups: %v\n", cfg.Policy.ApplyGlobalGroups)
	fmt.Printf("Apply global world groups: %v\n", cfg.Policy.ApplyGlobalWorldGroups)
	fmt.Printf("\nCache TTL: %dms\n", cfg.Cache.TTLMillis)
	fmt.Printf("Max subjects: %d\n", cfg.Cache.MaxSubjects)
	fmt.Printf("\nPrefix formatting: %v\n", cfg.Meta.PrefixFormatting)
	fmt.Printf("Suffix formatting: %v\n", cfg.Meta.SuffixFormatting)
	if len(cfg.Scripting.Paths) > 0 {
		fmt.Printf("\nScript paths: %v\n", cfg.Scripting.Paths)
		fmt.Printf("Scripted calculators: %v\n", cfg.Scripting.Calculators)
		fmt.Printf("Scripted static calculators: %v\n", cfg.Scripting.StaticCalculators)
	}
	fmt.Printf("\nLog level: %s\n", cfg.Logging.Level)
}
