// Package registry owns the model version lifecycle: listing, latest
// resolution, semantic version allocation, atomic saves, and a bounded
// cache of deserialized bundles.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/siakad-labs/kbk-classifier/internal/classifier"
	"github.com/siakad-labs/kbk-classifier/internal/domain"
	"github.com/siakad-labs/kbk-classifier/internal/metrics"
	"github.com/siakad-labs/kbk-classifier/internal/store"
)

var (
	// ErrVersionNotFound marks a requested version absent from the store.
	ErrVersionNotFound = errors.New("model version not found")

	// ErrArtifactCorrupt marks a stored bundle that failed structural
	// deserialization. It indicates store tampering or a bad write.
	ErrArtifactCorrupt = errors.New("model artifact corrupt")

	// ErrModelNotLoaded marks a registry with no versions and no legacy
	// fallback.
	ErrModelNotLoaded = errors.New("no model available")
)

// Registry manages model versions over an artifact store. The cache is
// a pure speed optimization: every operation is correct with a cold
// cache as long as the version exists in the store.
type Registry struct {
	store store.ArtifactStore
	cache *bundleCache

	// trainMu serializes version allocation and save end-to-end so two
	// concurrent training runs cannot claim the same next version.
	trainMu sync.Mutex
}

// New creates a registry with a bundle cache of the given capacity.
func New(s store.ArtifactStore, cacheSize int) *Registry {
	return &Registry{
		store: s,
		cache: newBundleCache(cacheSize),
	}
}

// ListVersions returns metadata for all versions, descending by
// version. Listing fails soft: a storage hiccup yields an empty slice
// rather than taking the service down.
func (r *Registry) ListVersions(ctx context.Context) []domain.ModelMetadata {
	metas, err := r.store.ListMetadata(ctx)
	if err != nil {
		slog.Warn("Failed to list model versions", "error", err)
		return nil
	}

	sort.Slice(metas, func(i, j int) bool {
		vi, erri := domain.ParseVersion(metas[i].Version)
		vj, errj := domain.ParseVersion(metas[j].Version)
		if erri != nil || errj != nil {
			return metas[i].Version > metas[j].Version
		}
		return vi.Compare(vj) > 0
	})
	return metas
}

// Latest returns the highest stored version, or false if none exists.
func (r *Registry) Latest(ctx context.Context) (domain.Version, bool) {
	metas := r.ListVersions(ctx)
	for _, meta := range metas {
		v, err := domain.ParseVersion(meta.Version)
		if err == nil {
			return v, true
		}
	}
	return domain.Version{}, false
}

// NextVersion computes the version a new training run will claim:
// the successor of the latest under the bump kind, or 1.0.0 when the
// registry is empty.
func (r *Registry) NextVersion(ctx context.Context, kind domain.BumpKind) domain.Version {
	latest, ok := r.Latest(ctx)
	if !ok {
		return domain.Version{Major: 1}
	}
	return latest.Bump(kind)
}

// Load returns the bundle for a version, from cache when possible.
// Cache entries are trusted for the process lifetime; a hit involves no
// store round trip. A miss reads and deserializes the bundle, inserts
// it into the cache, and returns it.
func (r *Registry) Load(ctx context.Context, version domain.Version) (*domain.Bundle, error) {
	if b, ok := r.cache.get(version.String()); ok {
		metrics.RegistryCacheHits.Inc()
		return b, nil
	}
	metrics.RegistryCacheMisses.Inc()

	if _, err := r.store.GetMetadata(ctx, version); err != nil {
		if errors.Is(err, store.ErrNoMetadata) {
			return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, version)
		}
		return nil, fmt.Errorf("load metadata for %s: %w", version, err)
	}

	bundle, err := r.readBundle(version)
	if err != nil {
		return nil, err
	}

	r.cache.put(version.String(), bundle)
	slog.Info("Loaded model bundle", "version", version.String())
	return bundle, nil
}

// readBundle deserializes the bundle parts for a version whose
// metadata record exists. Missing or malformed required parts surface
// as ErrArtifactCorrupt.
func (r *Registry) readBundle(version domain.Version) (*domain.Bundle, error) {
	modelData, err := r.store.ReadPart(version, store.PartModel)
	if err != nil {
		return nil, corrupt(version, err)
	}
	vecData, err := r.store.ReadPart(version, store.PartVectorizer)
	if err != nil {
		return nil, corrupt(version, err)
	}

	nb, err := classifier.DecodeClassifier(modelData)
	if err != nil {
		return nil, corrupt(version, err)
	}
	enc, err := classifier.DecodeEncoder(vecData)
	if err != nil {
		return nil, corrupt(version, err)
	}

	bundle := &domain.Bundle{
		Version:    version,
		Classifier: nb,
		Encoder:    enc,
	}

	selData, err := r.store.ReadPart(version, store.PartSelector)
	switch {
	case errors.Is(err, store.ErrNoPart):
		// Selector is optional.
	case err != nil:
		return nil, corrupt(version, err)
	default:
		sel, err := classifier.DecodeSelector(selData)
		if err != nil {
			return nil, corrupt(version, err)
		}
		bundle.Selector = sel
	}
	return bundle, nil
}

func corrupt(version domain.Version, err error) error {
	slog.Error("Model artifact failed structural checks", "version", version.String(), "error", err)
	return fmt.Errorf("%w: version %s: %v", ErrArtifactCorrupt, version, err)
}

// CreateVersion allocates the next version under the bump kind and
// persists a freshly trained bundle as that version. The whole
// operation holds the training lock, and the version only becomes
// visible after a successful save, so a mid-training failure never
// corrupts the version counter.
func (r *Registry) CreateVersion(ctx context.Context, result *classifier.TrainResult, kind domain.BumpKind, meta domain.ModelMetadata) (*domain.ModelMetadata, error) {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	version := r.NextVersion(ctx, kind)

	parts, err := marshalParts(result.Classifier, result.Encoder)
	if err != nil {
		return nil, fmt.Errorf("serialize bundle: %w", err)
	}

	meta.Accuracy = result.Accuracy
	meta.CVAccuracy = result.CVAccuracy
	meta.OverfittingScore = result.Overfitting
	meta.SampleCount = result.SampleCount

	saved, err := r.store.SaveBundle(ctx, version, parts, meta)
	if err != nil {
		return nil, fmt.Errorf("save version %s: %w", version, err)
	}

	slog.Info("Saved model version", "version", version.String(), "accuracy", meta.Accuracy, "cv_accuracy", meta.CVAccuracy)
	return saved, nil
}

// MigrateLegacy adopts an unversioned legacy bundle as version 1.0.0
// with placeholder metadata. It is idempotent: if any version already
// exists the migration is a no-op, checked before anything is read.
func (r *Registry) MigrateLegacy(ctx context.Context) error {
	r.trainMu.Lock()
	defer r.trainMu.Unlock()

	metas, err := r.store.ListMetadata(ctx)
	if err != nil {
		return fmt.Errorf("check existing versions: %w", err)
	}
	if len(metas) > 0 {
		return nil
	}
	if !r.store.HasLegacyArtifact() {
		return nil
	}

	slog.Info("Migrating legacy model to version 1.0.0")

	parts := make(map[string][]byte)
	for _, part := range []string{store.PartModel, store.PartVectorizer} {
		data, err := r.store.ReadLegacyPart(part)
		if err != nil {
			return fmt.Errorf("read legacy artifact: %w", err)
		}
		parts[part] = data
	}
	if selData, err := r.store.ReadLegacyPart(store.PartSelector); err == nil {
		parts[store.PartSelector] = selData
	}

	meta := domain.ModelMetadata{
		Name:        "KBK Initial Model",
		Description: "Migrated from unversioned legacy artifacts",
	}
	if _, err := r.store.SaveBundle(ctx, domain.Version{Major: 1}, parts, meta); err != nil {
		return fmt.Errorf("save migrated bundle: %w", err)
	}

	slog.Info("Legacy model migration completed")
	return nil
}

// marshalParts serializes a freshly trained bundle. New training runs
// never carry a selector; that part exists only in migrated legacy
// bundles, which are copied byte-for-byte.
func marshalParts(nb *classifier.MultinomialNB, enc *classifier.TFIDFEncoder) (map[string][]byte, error) {
	modelData, err := json.Marshal(nb)
	if err != nil {
		return nil, fmt.Errorf("marshal classifier: %w", err)
	}
	vecData, err := json.Marshal(enc)
	if err != nil {
		return nil, fmt.Errorf("marshal vectorizer: %w", err)
	}
	return map[string][]byte{
		store.PartModel:      modelData,
		store.PartVectorizer: vecData,
	}, nil
}

// CacheLen reports the number of cached bundles.
func (r *Registry) CacheLen() int {
	return r.cache.len()
}
