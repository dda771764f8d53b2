// Package app provides application initialization and dependency injection.
//
// App is the container that wires configuration, Genkit, the vector store,
// session state, tools, and the RAG system together. Setup builds it;
// Close releases it.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/lectern/lectern/internal/config"
	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
	"github.com/lectern/lectern/internal/session"
	"github.com/lectern/lectern/internal/store"
	"github.com/lectern/lectern/internal/tools"
)

// App is the core application container.
type App struct {
	// Configuration
	Config *config.Config
	Logger log.Logger

	// Core services
	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	Store    *store.Store
	Sessions *session.Store
	Registry *tools.Registry
	System   *rag.System
}

// Close gracefully shuts down the application. Sessions and the in-memory
// store need no teardown; the persistent store flushes on every write.
func (a *App) Close() error {
	if a.Logger != nil {
		a.Logger.Info("shutting down application")
	}
	return nil
}
