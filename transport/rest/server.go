package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Start runs the thin HTTP surface: room create/join pass-throughs, chat
// history, and a liveness ping. It blocks until the context is canceled
// or the listener fails.
func Start(ctx context.Context, logger *slog.Logger, rooms roomService, chat chatHistory, port string) error {
	h := newHandlers(logger, rooms, chat)

	router := mux.NewRouter()
	router.HandleFunc("/ping", h.ping).Methods(http.MethodGet)
	router.HandleFunc("/rooms", h.createRoom).Methods(http.MethodPost)
	router.HandleFunc("/rooms/{id}", h.joinRoom).Methods(http.MethodGet)
	router.HandleFunc("/rooms/{id}/messages", h.roomMessages).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
