package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-dashboard/config"
	"weather-dashboard/internal/api"
	"weather-dashboard/internal/dashboard"
	"weather-dashboard/internal/modbus"
	"weather-dashboard/internal/mqtt"
	"weather-dashboard/internal/station"
	"weather-dashboard/internal/storage"
	"weather-dashboard/internal/timezone"
	"weather-dashboard/internal/view"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	configFile string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weather-dashboard",
		Short: "Simulated weather station dashboard",
		Long:  "Serve a live weather dashboard backed by a simulated station, with optional archive, MQTT and Modbus outputs",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(readCmd())
	rootCmd.AddCommand(probeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// stationLocation resolves the timezone LastUpdated is rendered in, falling
// back to the host zone when neither the config nor the lookup can answer.
func stationLocation(cfg *config.Config, logger *slog.Logger) *time.Location {
	var lookup timezone.Lookup
	if cfg.Station.Timezone == "" {
		finder, err := timezone.DefaultFinder()
		if err != nil {
			logger.Warn("timezone lookup unavailable", "error", err)
		} else {
			lookup = finder
		}
	}

	loc, err := timezone.NewResolver(lookup, time.Local).Locate(timezone.Station{
		Zone:      cfg.Station.Timezone,
		Latitude:  cfg.Station.Latitude,
		Longitude: cfg.Station.Longitude,
	})
	if err != nil {
		logger.Warn("using local timezone", "error", err)
	}
	return loc
}

func newGenerator(cfg *config.Config, logger *slog.Logger) *station.Generator {
	loc := stationLocation(cfg, logger)
	logger.Debug("station timezone", "station", cfg.Station.ID, "timezone", loc.String())
	return station.NewGenerator(station.WithLocation(loc))
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard",
		Long:  "Start the refresh loop, the web dashboard and every enabled output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			var (
				sinks   []dashboard.Sink
				archive api.Archive
			)

			if cfg.Database.Enabled {
				db, err := storage.Open(cfg.Database.URL)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer db.Close()
				logger.Info("archive opened", "url", cfg.Database.URL)

				janitor := storage.NewJanitor(db, cfg.Database.Retention, cfg.Database.PruneInterval, logger)
				if err := janitor.Start(); err != nil {
					return err
				}
				defer janitor.Stop()

				sinks = append(sinks, db)
				archive = db
			}

			publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
				Broker:      cfg.MQTT.Broker,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				StationID:   cfg.Station.ID,
				StationName: cfg.Station.City,
				Enabled:     cfg.MQTT.Enabled,

				ConnectTimeout: cfg.MQTT.Timeout,
			}, logger)
			if err != nil {
				logger.Warn("MQTT connection failed", "error", err)
			} else if cfg.MQTT.Enabled {
				defer publisher.Close()
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				if err := publisher.PublishHomeAssistantDiscovery(ctx); err != nil {
					logger.Warn("home assistant discovery failed", "error", err)
				}
				cancel()
				sinks = append(sinks, publisher)
			}

			if cfg.Modbus.Enabled {
				bank := modbus.NewRegisterBank(logger)
				server, err := modbus.NewServer(cfg.Modbus.Listen, cfg.Modbus.Timeout, bank, logger)
				if err != nil {
					return err
				}
				if err := server.Start(); err != nil {
					return err
				}
				defer server.Stop()
				sinks = append(sinks, bank)
			}

			dash := dashboard.New(dashboard.Config{
				Generator: newGenerator(cfg, logger),
				Logger:    logger,
				Sinks:     sinks,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := dash.Start(ctx); err != nil {
				return err
			}

			var server *api.Server
			if cfg.API.Enabled {
				server = api.NewServer(api.ServerConfig{
					Port:      cfg.API.Port,
					Dashboard: dash,
					Archive:   archive,
					Header:    view.Header{City: cfg.Station.City, LocalName: cfg.Station.LocalName},
					Logger:    logger,
				})

				go func() {
					if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("API server error", "error", err)
						stop()
					}
				}()
			}

			logger.Info("weather dashboard started", "station", cfg.Station.ID, "sinks", len(sinks))

			<-ctx.Done()
			logger.Info("shutting down")

			// Stopping the dashboard first closes open event streams.
			dash.Stop()

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := server.Stop(shutdownCtx); err != nil {
					logger.Warn("API server shutdown", "error", err)
				}
			}

			return nil
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Generate one snapshot",
		Long:  "Generate a single simulated snapshot and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			snap := newGenerator(cfg, logger).Generate()

			output, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode snapshot: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return nil
		},
	}
}

func probeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Read a running station over Modbus TCP",
		Long:  "Connect to a register bank and print the decoded conditions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			if addr == "" {
				addr = probeAddr(cfg.Modbus.Listen)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Probing station at %s...\n", addr)

			client := modbus.NewClient(addr, cfg.Modbus.UnitID, cfg.Modbus.Timeout)
			if err := client.Connect(); err != nil {
				fmt.Fprintf(out, "Connection FAILED: %v\n", err)
				return err
			}
			defer client.Close()

			reading, err := client.ReadStation()
			if err != nil {
				return fmt.Errorf("failed to read station: %w", err)
			}

			c := reading.Current
			fmt.Fprintf(out, "\nGenerated:     %s\n", reading.GeneratedAt.Format(time.RFC3339))
			fmt.Fprintf(out, "\nCurrent Conditions:\n")
			fmt.Fprintf(out, "  Condition:   %s %s\n", c.Condition.Icon(), c.Condition)
			fmt.Fprintf(out, "  Temperature: %d °C (feels like %d °C)\n", c.Temp, c.FeelsLike)
			fmt.Fprintf(out, "  Humidity:    %d %%\n", c.Humidity)
			fmt.Fprintf(out, "  Wind Speed:  %d km/h\n", c.WindSpeed)
			fmt.Fprintf(out, "  UV Index:    %d\n", c.UVIndex)
			fmt.Fprintf(out, "  Visibility:  %d km\n", c.Visibility)
			fmt.Fprintf(out, "  Pressure:    %d hPa\n", c.Pressure)
			fmt.Fprintf(out, "\nForecast:\n")
			for _, day := range reading.Forecast {
				fmt.Fprintf(out, "  %-9s %s %3d° / %3d°  %s\n", day.Day, day.Condition.Icon(), day.High, day.Low, day.Condition)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "register bank address (host:port), defaults to the local modbus listener")
	return cmd
}

// probeAddr turns a wildcard listen address into one a client can dial.
func probeAddr(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
