package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vitormoschetta/go-voice-coach/internal/config"
	"github.com/vitormoschetta/go-voice-coach/internal/handler"
	"github.com/vitormoschetta/go-voice-coach/internal/logging"
	"github.com/vitormoschetta/go-voice-coach/internal/persona"
	"github.com/vitormoschetta/go-voice-coach/internal/server"
)

var cfgPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "voicecoach",
		Short:         "Voice and text assistant API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file path")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message through the text pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runChat,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "personas",
		Short: "List built-in personas",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range persona.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := logging.New(cfg.Log)
	for _, w := range cfg.Warnings {
		logger.Warn().Msg(w)
	}
	return cfg, logger, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Criar servidor
	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Configurar rotas com os handlers
	srv.SetupRouter(handler.NewHandler(srv).Routes())

	// Iniciar servidor
	return srv.Start(ctx)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	// Logs vão para stderr para não misturar com a resposta
	logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pipeline, cleanup := server.NewPipeline(ctx, cfg, logger)
	defer cleanup()

	reply, err := pipeline.Chat(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
