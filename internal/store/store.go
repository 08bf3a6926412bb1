// Package store provides durable artifact storage for model bundles:
// metadata records in SQLite and serialized bundle parts as files on
// disk. It carries no caching or version-lifecycle logic; that lives in
// the registry.
package store

import (
	"context"
	"errors"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

// Bundle part names. A bundle is complete when the model and vectorizer
// parts exist; the selector part is optional.
const (
	PartModel      = "model.json"
	PartVectorizer = "vectorizer.json"
	PartSelector   = "selector.json"
)

// ErrNoMetadata is returned by GetMetadata when the version has no
// metadata record.
var ErrNoMetadata = errors.New("no metadata for version")

// ErrNoPart is returned by ReadPart when a part file is absent.
var ErrNoPart = errors.New("bundle part not found")

// ArtifactStore defines the interface for persisting model bundles.
type ArtifactStore interface {
	// ListMetadata returns metadata for every stored version, in
	// unspecified order.
	ListMetadata(ctx context.Context) ([]domain.ModelMetadata, error)

	// GetMetadata retrieves the metadata record for one version.
	GetMetadata(ctx context.Context, version domain.Version) (*domain.ModelMetadata, error)

	// ReadPart reads one serialized bundle part for a version.
	ReadPart(version domain.Version, part string) ([]byte, error)

	// SaveBundle persists all bundle parts and the metadata record.
	// The write is atomic from a reader's perspective: parts land in a
	// temporary directory that is renamed into place, and the metadata
	// record is inserted last as the commit point. CreatedAt and
	// ModelPath are stamped into the returned metadata.
	SaveBundle(ctx context.Context, version domain.Version, parts map[string][]byte, meta domain.ModelMetadata) (*domain.ModelMetadata, error)

	// HasLegacyArtifact reports whether an unversioned bundle exists
	// directly under the models root.
	HasLegacyArtifact() bool

	// ReadLegacyPart reads one part of the unversioned legacy bundle.
	ReadLegacyPart(part string) ([]byte, error)

	// Ping verifies the metadata database is reachable.
	Ping(ctx context.Context) error

	// Close closes the metadata database.
	Close() error
}
