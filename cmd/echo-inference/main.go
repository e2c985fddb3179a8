package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"cipherchat/internal/domain"
	"cipherchat/internal/inference"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func accessLog(log logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"remote":   r.RemoteAddr,
			"status":   sw.status,
			"bytes":    sw.bytes,
			"duration": time.Since(start),
		}).Info("request")
	})
}

func reply(history []domain.ChatTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			return "You said: " + history[i].Content
		}
	}
	return "Nothing to echo."
}

func chatHandler(log logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req inference.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Model) == "" {
			http.Error(w, "model is required", http.StatusBadRequest)
			return
		}
		log.WithFields(logrus.Fields{
			"model": req.Model,
			"turns": len(req.Messages),
		}).Debug("chat")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(inference.ChatResponse{
			Model:   req.Model,
			Message: domain.ChatTurn{Role: domain.RoleAssistant, Content: reply(req.Messages)},
			Done:    true,
		})
	}
}

func rootCmd() *cobra.Command {
	var addr, level string
	cmd := &cobra.Command{
		Use:           "echo-inference",
		Short:         "Serve an Ollama-compatible /api/chat that echoes the user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(level)
			if err != nil {
				return fmt.Errorf("--log-level: %w", err)
			}
			log := logrus.New()
			log.SetLevel(lvl)

			mux := http.NewServeMux()
			mux.Handle(inference.ChatPath, chatHandler(log))

			log.WithField("addr", addr).Info("echo inference listening")
			return http.ListenAndServe(addr, accessLog(log, mux))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:11434", "listen address")
	cmd.Flags().StringVar(&level, "log-level", "info", "log level")
	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
