// Package provider defines the interface for media content providers
// and their implementations.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"unity/internal/httputil"
	"unity/internal/media"
)

// Provider is the interface that content providers must implement. Every
// call is an independent attempt: nothing is cached between calls.
type Provider interface {
	// Name is the human-readable site name.
	Name() string

	// Prefix is the content ID prefix this provider owns, e.g. "sc".
	Prefix() string

	// Catalog describes the searchable catalog the provider publishes.
	Catalog() media.CatalogDef

	// Search returns matching titles. A blank title yields no results and
	// no network traffic.
	Search(ctx context.Context, title string) ([]media.CatalogRecord, error)

	// GetMeta returns the detail of a title. id has no prefix.
	GetMeta(ctx context.Context, id string) (media.MetaRecord, error)

	// GetStreams returns at least one playable stream. id has no prefix.
	GetStreams(ctx context.Context, id string) ([]media.StreamDescriptor, error)
}

// Options carries the collaborators shared by every provider.
type Options struct {
	BaseURL string
	Client  *http.Client
	Log     logrus.FieldLogger

	// Now is the clock used for missing release dates. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Client == nil {
		o.Client = httputil.NewClient()
	}
	if o.Log == nil {
		o.Log = logrus.StandardLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
