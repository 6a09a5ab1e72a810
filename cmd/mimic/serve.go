package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ha1tch/mimic-toolkit/internal/logging"
	"github.com/ha1tch/mimic-toolkit/pkg/relay"
)

// Environment variables read by serve, after .env is loaded.
const (
	envAddr  = "MIMIC_ADDR"
	envStore = "MIMIC_STORE"
)

var (
	serveEnvFile  string
	serveAddr     string
	serveStore    string
	serveTarget   string
	serveInterval time.Duration
	serveWatch    bool
	serveSimulate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	Long: `Run the relay server that shares one diagram between editors.

Endpoints:
  GET  /diagram            the stored document ({} when empty)
  POST /diagram            validate and store a document
  /ws                      WebSocket; every message is sent to every peer
  POST /start_simulation   toggle the simulation target periodically
  POST /stop_simulation

Settings come from flags, then ` + envAddr + ` and ` + envStore + ` (a .env file is
loaded first if present).`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(serveEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", serveEnvFile, err)
			os.Exit(1)
		}
		addr := setting(cmd, "addr", serveAddr, envAddr, ":8000")
		store := setting(cmd, "store", serveStore, envStore, "diagram.json")

		log := logging.Named("serve")
		srv := relay.NewServer(relay.Options{
			StorePath: store,
			Target:    serveTarget,
			Interval:  serveInterval,
		})
		httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("listen %s: %v", addr, err)
				stop()
			}
		}()
		fmt.Printf("Relay listening on %s, storing %s\n", addr, store)

		if serveWatch {
			if _, err := os.Stat(store); err != nil {
				log.Warn("not watching %s: %v", store, err)
			} else {
				go func() {
					if err := srv.Watch(ctx, 500*time.Millisecond); err != nil {
						log.Warn("watch %s: %v", store, err)
					}
				}()
			}
		}
		if serveSimulate {
			srv.StartSimulation()
		}

		<-ctx.Done()
		fmt.Println("Shutting down")

		srv.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown: %v", err)
		}
	},
}

// setting resolves a string option: an explicit flag wins, then the
// environment, then def.
func setting(cmd *cobra.Command, flag, value, env, def string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

func init() {
	serveCmd.Flags().StringVar(&serveEnvFile, "env", ".env", "environment file to load")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default "+envAddr+" or :8000)")
	serveCmd.Flags().StringVar(&serveStore, "store", "", "diagram file (default "+envStore+" or diagram.json)")
	serveCmd.Flags().StringVar(&serveTarget, "target", relay.DefaultTarget, "component toggled by the simulation")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", relay.DefaultInterval, "simulation period")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "broadcast the store file when it changes on disk")
	serveCmd.Flags().BoolVar(&serveSimulate, "simulate", false, "start the simulation immediately")
	rootCmd.AddCommand(serveCmd)
}
