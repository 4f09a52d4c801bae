package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"sheetagent/internal/agent"
	"sheetagent/internal/config"
	"sheetagent/internal/logging"
	"sheetagent/internal/registry"
	"sheetagent/internal/skill"
)

var (
	// Global flags
	verbose    bool
	configPath string
	skillsDir  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sheetagent",
	Short: "sheetagent - LLM-driven spreadsheet analysis",
	Long: `sheetagent loads Excel and CSV files, routes natural language questions
to skill-scoped tools, and lets Gemini query, modify, and chart the data.

Mutations go to a protected working copy; originals stay untouched until
you explicitly save back.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if skillsDir != "" {
			cfg.Skills.Dir = skillsDir
		}
		if err := logging.Init(verbose || cfg.Logging.Debug, cfg.Logging.Dir); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Print the structure of a spreadsheet without loading an agent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tables := registry.New()
		_, _, err := tables.AddTable(args[0], cmd.Flag("sheet").Value.String(), false)
		if err != nil {
			return err
		}
		summary, err := tables.ActiveSummary()
		if err != nil {
			return err
		}
		fmt.Println(summary)
		return nil
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the skills found in the skills directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := skill.NewScanner(cfg.Skills.Dir)
		n, err := scanner.Scan(false)
		if err != nil {
			return err
		}
		fmt.Printf("%d skills in %s\n\n", n, cfg.Skills.Dir)
		fmt.Println(scanner.ListPrompt())
		return nil
	},
}

var routeCmd = &cobra.Command{
	Use:   "route [query]",
	Short: "Show which skills a query would activate, without calling the model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := skill.NewScanner(cfg.Skills.Dir)
		if _, err := scanner.Scan(false); err != nil {
			return err
		}
		router := skill.NewRouter(scanner)
		query := strings.Join(args, " ")

		for _, m := range router.ScoreQuery(query) {
			fmt.Printf("%-20s %.2f  %s", m.Name, m.Score, m.MatchType)
			if m.MatchedText != "" {
				fmt.Printf(" (%s)", m.MatchedText)
			}
			fmt.Println()
		}
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask [file] [question]",
	Short: "Ask one question about a spreadsheet",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signalContext()

		tables := registry.New()
		protect, _ := cmd.Flags().GetBool("protect")
		if _, _, err := tables.AddTable(args[0], "", protect); err != nil {
			return err
		}

		sess, err := agent.NewSession(ctx, cfg, tables)
		if err != nil {
			return err
		}
		sess.OnEvent = printEvent

		answer, err := sess.Ask(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Interactive session over one or more spreadsheets",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := signalContext()

		tables := registry.New()
		protect, _ := cmd.Flags().GetBool("protect")
		for _, path := range args {
			if _, _, err := tables.AddTable(path, "", protect); err != nil {
				return err
			}
		}

		sess, err := agent.NewSession(ctx, cfg, tables)
		if err != nil {
			return err
		}
		sess.OnEvent = printEvent

		// Edits to skill descriptors take effect without a restart.
		go func() {
			if err := sess.WatchSkills(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "skills watcher: %v\n", err)
			}
		}()

		summary, err := tables.ActiveSummary()
		if err == nil {
			fmt.Println(summary)
		}
		fmt.Println(`Type a question, or "exit" to quit.`)

		in := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !in.Scan() {
				return in.Err()
			}
			line := strings.TrimSpace(in.Text())
			switch line {
			case "":
				continue
			case "exit", "quit":
				return nil
			}
			answer, err := sess.Ask(ctx, line)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				continue
			}
			fmt.Println(answer)
		}
	},
}

func printEvent(ev agent.Event) {
	switch ev.Kind {
	case agent.EventSkills:
		fmt.Fprintf(os.Stderr, "[skills] %s\n", strings.Join(ev.Skills, ", "))
	case agent.EventToolCall:
		args, _ := json.Marshal(ev.Args)
		fmt.Fprintf(os.Stderr, "[tool] %s %s\n", ev.Tool, args)
	}
}

func signalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&skillsDir, "skills", "", "override the skills directory")

	inspectCmd.Flags().String("sheet", "", "sheet to inspect")
	askCmd.Flags().Bool("protect", true, "work on a protected copy")
	chatCmd.Flags().Bool("protect", true, "work on a protected copy")

	rootCmd.AddCommand(inspectCmd, skillsCmd, routeCmd, askCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
