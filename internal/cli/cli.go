package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ignatij/logreport/internal/config"
	internal_http "github.com/ignatij/logreport/internal/http"
	"github.com/ignatij/logreport/internal/log"
	"github.com/ignatij/logreport/internal/metrics"
	"github.com/ignatij/logreport/internal/scheduler"
	"github.com/ignatij/logreport/internal/smtp"
	internal_storage "github.com/ignatij/logreport/internal/storage"
	"github.com/ignatij/logreport/pkg/mail"
	"github.com/ignatij/logreport/pkg/models"
	"github.com/ignatij/logreport/pkg/report"
	"github.com/ignatij/logreport/pkg/service"
	"github.com/spf13/cobra"
)

func SetupCLI(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().String("env", ".env", "Path to an optional .env file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web UI and the scheduled report",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			if err := cfg.Email.Validate(); err != nil {
				log.GetLogger().Warnf("Email sending will fail until configured: %v", err)
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.HTTPPort = port
			}
			svc := initService(cfg, service.WithObserver(metrics.FlowObserver{}))
			serve(cfg, svc)
		},
	}
	serveCmd.Flags().String("port", "", "HTTP port (overrides HTTP_PORT)")

	sendReportCmd := &cobra.Command{
		Use:   "send-report",
		Short: "Email the PDF report of the most recent logs",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := loadConfig(cmd)
			requireEmail(cfg)
			svc := initService(cfg)
			printOutcome(svc.SendFullReport(cmd.Context()))
		},
	}

	sendSelectedCmd := &cobra.Command{
		Use:   "send-selected",
		Short: "Email a summary of the selected recent logs",
		Run: func(cmd *cobra.Command, args []string) {
			ids, err := cmd.Flags().GetStringSlice("id")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving id flag: %v", err)
				os.Exit(1)
			}
			cfg := loadConfig(cmd)
			requireEmail(cfg)
			svc := initService(cfg)
			printOutcome(svc.SendSelectedReport(cmd.Context(), ids))
		},
	}
	sendSelectedCmd.Flags().StringSlice("id", nil, "Log id to include (repeatable)")

	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Write the PDF report of the most recent logs to a file",
		Run: func(cmd *cobra.Command, args []string) {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				log.GetLogger().Errorf("Error retrieving out flag: %v", err)
				os.Exit(1)
			}
			svc := initService(loadConfig(cmd))
			pdf, err := svc.DownloadReport(cmd.Context())
			if err != nil {
				log.GetLogger().Errorf("Failed to build report: %v", err)
				fmt.Fprintf(os.Stderr, "Error: failed to build report: %v\n", err)
				os.Exit(1)
			}
			if err := os.WriteFile(out, pdf, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to write %s: %v\n", out, err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "Wrote %d bytes to %s\n", len(pdf), out)
		},
	}
	downloadCmd.Flags().String("out", mail.ReportAttachmentName, "Output file")

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the connection to Elasticsearch",
		Run: func(cmd *cobra.Command, args []string) {
			store := initStore(loadConfig(cmd).Elastic)
			fmt.Fprintln(os.Stdout, store.TestConnection(cmd.Context()))
		},
	}

	rootCmd.AddCommand(serveCmd, sendReportCmd, sendSelectedCmd, downloadCmd, pingCmd)
}

func loadConfig(cmd *cobra.Command) config.Config {
	envFile, err := cmd.Flags().GetString("env")
	if err != nil {
		log.GetLogger().Errorf("Error retrieving env flag: %v", err)
		os.Exit(1)
	}
	cfg, err := config.Load(envFile)
	if err != nil {
		log.GetLogger().Errorf("Failed to load configuration: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func requireEmail(cfg config.Config) {
	if err := cfg.Email.Validate(); err != nil {
		log.GetLogger().Errorf("Invalid email configuration: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initStore(cfg config.Elastic) *internal_storage.ElasticStore {
	store, err := internal_storage.NewElasticStore(cfg)
	if err != nil {
		log.GetLogger().Errorf("Failed to initialize store: %v", err)
		os.Exit(1)
	}
	return store
}

// initService wires the Elasticsearch store, renderer and SMTP transport.
func initService(cfg config.Config, opts ...service.Option) *service.ReportService {
	logger := log.GetLogger()
	transport := mail.NewTransport(smtp.NewSessionFactory(cfg.Email), cfg.Email.Timeout, logger)
	composer := mail.NewComposer(cfg.Email.Sender, cfg.Email.Recipient)
	return service.NewReportService(initStore(cfg.Elastic), report.NewRenderer(), composer, transport, logger, opts...)
}

func serve(cfg config.Config, svc *service.ReportService) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.ReportSchedule != "" {
		runner := scheduler.New(ctx, log.GetLogger())
		if _, err := runner.Schedule(cfg.ReportSchedule, svc); err != nil {
			log.GetLogger().Errorf("Failed to schedule report: %v", err)
			os.Exit(1)
		}
		runner.Start()
		defer runner.Stop()
	}

	opts := internal_http.Options{SendRatePerMinute: cfg.SendRatePerMinute}
	if err := internal_http.StartServer(ctx, cfg.HTTPPort, svc, opts); err != nil {
		log.GetLogger().Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}

func printOutcome(out models.Outcome) {
	if !out.Success {
		fmt.Fprintln(os.Stderr, out.Message)
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, out.Message)
}
