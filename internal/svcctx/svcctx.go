// Package svcctx provides service context for dependency injection via context.
// Commands build the service graph once and extract what they need via the
// individual extractors.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/openfdd/dossier/internal/calllog"
	"github.com/openfdd/dossier/internal/config"
	"github.com/openfdd/dossier/internal/detect"
	"github.com/openfdd/dossier/internal/extract"
	"github.com/openfdd/dossier/internal/home"
	"github.com/openfdd/dossier/internal/monitor"
	"github.com/openfdd/dossier/internal/pipeline"
	"github.com/openfdd/dossier/internal/prompts"
	"github.com/openfdd/dossier/internal/providers"
	"github.com/openfdd/dossier/internal/router"
	"github.com/openfdd/dossier/internal/segment"
	"github.com/openfdd/dossier/internal/store"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Config      *config.Manager
	Home        *home.Dir
	Catalog     *prompts.Catalog
	Registry    *providers.Registry
	Router      *router.Router
	Store       store.Store
	Monitor     *monitor.Monitor
	Calls       *calllog.Recorder
	Engine      *extract.Engine
	Detector    *detect.Detector
	Segmenter   *segment.Segmenter
	Coordinator *pipeline.Coordinator
	Logger      *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// ConfigFrom extracts the config manager from context.
func ConfigFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.Config
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// CatalogFrom extracts the prompt catalog from context.
func CatalogFrom(ctx context.Context) *prompts.Catalog {
	if s := ServicesFrom(ctx); s != nil {
		return s.Catalog
	}
	return nil
}

// RegistryFrom extracts the backend registry from context.
func RegistryFrom(ctx context.Context) *providers.Registry {
	if s := ServicesFrom(ctx); s != nil {
		return s.Registry
	}
	return nil
}

// RouterFrom extracts the backend router from context.
func RouterFrom(ctx context.Context) *router.Router {
	if s := ServicesFrom(ctx); s != nil {
		return s.Router
	}
	return nil
}

// StoreFrom extracts the section record store from context.
func StoreFrom(ctx context.Context) store.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// MonitorFrom extracts the run monitor from context.
func MonitorFrom(ctx context.Context) *monitor.Monitor {
	if s := ServicesFrom(ctx); s != nil {
		return s.Monitor
	}
	return nil
}

// CallsFrom extracts the model call recorder from context.
func CallsFrom(ctx context.Context) *calllog.Recorder {
	if s := ServicesFrom(ctx); s != nil {
		return s.Calls
	}
	return nil
}

// EngineFrom extracts the extraction engine from context.
func EngineFrom(ctx context.Context) *extract.Engine {
	if s := ServicesFrom(ctx); s != nil {
		return s.Engine
	}
	return nil
}

// DetectorFrom extracts the boundary detector from context.
func DetectorFrom(ctx context.Context) *detect.Detector {
	if s := ServicesFrom(ctx); s != nil {
		return s.Detector
	}
	return nil
}

// SegmenterFrom extracts the PDF segmenter from context.
func SegmenterFrom(ctx context.Context) *segment.Segmenter {
	if s := ServicesFrom(ctx); s != nil {
		return s.Segmenter
	}
	return nil
}

// CoordinatorFrom extracts the pipeline coordinator from context.
func CoordinatorFrom(ctx context.Context) *pipeline.Coordinator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Coordinator
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
