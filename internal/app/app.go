package app

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"time"

	"github.com/oldmonad/cvmInventory/internal/cache"
	"github.com/oldmonad/cvmInventory/internal/inventory"
	"github.com/oldmonad/cvmInventory/internal/output"
	"github.com/oldmonad/cvmInventory/pkg/cloud"
	awsProvider "github.com/oldmonad/cvmInventory/pkg/cloud/aws"
	tencentProvider "github.com/oldmonad/cvmInventory/pkg/cloud/tencent"
	cloudConfig "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/config/env"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"go.uber.org/zap"
)

type App struct {
	Logger         *zap.Logger
	configurations *env.Configurations
	provider       cloud.CloudProvider
	store          *cache.Store
	out            io.Writer
	now            func() time.Time
}

// AppRunner is the contract the CLI drives.
type AppRunner interface {
	List(ctx context.Context, refresh bool) error
	Host(ctx context.Context, address string) error
	Regions(ctx context.Context) error
}

func NewApp(configurations *env.Configurations) *App {
	var provider cloud.CloudProvider
	switch configurations.Settings.Provider {
	case cloudConfig.AWS:
		provider = awsProvider.NewAWSProvider()
	default:
		provider = tencentProvider.NewTencentProvider()
	}

	return &App{
		Logger:         logger.GetLogger(),
		configurations: configurations,
		provider:       provider,
		store:          cache.NewStore(configurations.Settings.CachePath),
		out:            os.Stdout,
		now:            time.Now,
	}
}

// List emits the full inventory. A forced refresh clears the cache first;
// otherwise a fresh snapshot is served as-is and only a miss (or a corrupt
// entry) triggers an API fetch. A partial multi-region fetch still emits
// the surviving inventory and returns the partial error so the caller can
// signal degradation.
func (a *App) List(ctx context.Context, refresh bool) error {
	settings := a.configurations.Settings

	if refresh {
		if err := a.store.Clear(); err != nil {
			return err
		}
	} else if a.store.IsFresh(a.now(), settings.CacheMaxAge) {
		doc, err := a.store.Load()
		if err == nil {
			a.Logger.Debug("serving inventory from cache")
			return output.WriteJSON(a.out, doc)
		}
		a.Logger.Warn("cache unusable, refetching", zap.Error(err))
	}

	doc, _, fetchErr := a.rebuild(ctx)
	if doc == nil {
		return fetchErr
	}

	if err := output.WriteJSON(a.out, doc); err != nil {
		return err
	}
	return fetchErr
}

// Host emits one host's variables, or an empty object when the host is
// unknown. An unknown host is not an error.
func (a *App) Host(ctx context.Context, address string) error {
	index, doc := a.loadIndex()

	entry, ok := index[address]
	if !ok {
		// Not in the cached index; the cache may simply be stale.
		freshDoc, freshIndex, fetchErr := a.rebuild(ctx)
		if freshDoc == nil {
			return fetchErr
		}
		doc = freshDoc
		if entry, ok = freshIndex[address]; !ok {
			return output.WriteJSON(a.out, map[string]interface{}{})
		}
	}

	instance, err := a.provider.FetchInstance(ctx, a.configurations.CloudConfig, entry.Region, entry.InstanceID)
	if err != nil {
		a.Logger.Warn("single-instance lookup failed, using cached variables", zap.Error(err))
		if doc != nil {
			if vars, ok := doc.Hostvars[address]; ok {
				return output.WriteJSON(a.out, vars)
			}
		}
		return err
	}
	if instance == nil {
		return output.WriteJSON(a.out, map[string]interface{}{})
	}

	return output.WriteJSON(a.out, inventory.HostVars(*instance, address))
}

// Regions prints the provider's available regions.
func (a *App) Regions(ctx context.Context) error {
	regions, err := a.provider.DescribeRegions(ctx, a.configurations.CloudConfig)
	if err != nil {
		return err
	}
	output.PrintRegions(a.out, regions)
	return nil
}

// rebuild fetches every configured region, builds the document, and stores
// the snapshot. It returns the partial-fetch error, if any, alongside the
// results.
func (a *App) rebuild(ctx context.Context) (*inventory.Document, inventory.Index, error) {
	settings := a.configurations.Settings

	regions, err := a.resolveRegions(ctx)
	if err != nil {
		return nil, nil, err
	}

	instances, fetchErr := cloud.FetchAll(ctx, a.provider, a.configurations.CloudConfig, regions)
	if fetchErr != nil {
		var partial errors.ErrPartialFetch
		if !stderrors.As(fetchErr, &partial) {
			return nil, nil, fetchErr
		}
	}

	builder := inventory.NewBuilder(
		inventory.BuildRules(settings.GroupBy),
		inventory.OptionsFromSettings(settings),
	)
	doc, index := builder.Build(instances)

	if err := a.store.Store(doc, index, a.now()); err != nil {
		// A failed cache write costs the next run an API call, nothing more.
		a.Logger.Warn("failed to persist inventory snapshot", zap.Error(err))
	}

	return doc, index, fetchErr
}

// loadIndex returns the freshest usable cached index, falling back to the
// full document when the index artifact is missing or corrupt.
func (a *App) loadIndex() (inventory.Index, *inventory.Document) {
	if !a.store.IsFresh(a.now(), a.configurations.Settings.CacheMaxAge) {
		return inventory.Index{}, nil
	}

	if index, err := a.store.LoadIndex(); err == nil {
		return index, nil
	}

	doc, err := a.store.Load()
	if err != nil {
		a.Logger.Warn("cache unusable for host lookup", zap.Error(err))
		return inventory.Index{}, nil
	}

	index := make(inventory.Index, len(doc.Hostvars))
	for address, vars := range doc.Hostvars {
		entry := inventory.IndexEntry{}
		if region, ok := vars["region"].(string); ok {
			entry.Region = region
		}
		if id, ok := vars["id"].(string); ok {
			entry.InstanceID = id
		}
		index[address] = entry
	}
	return index, doc
}

func (a *App) resolveRegions(ctx context.Context) ([]string, error) {
	settings := a.configurations.Settings
	if !settings.AllRegions() {
		return settings.EffectiveRegions(settings.Regions), nil
	}

	available, err := a.provider.DescribeRegions(ctx, a.configurations.CloudConfig)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(available))
	for _, region := range available {
		names = append(names, region.Name)
	}
	return settings.EffectiveRegions(names), nil
}

// SetOutput redirects emitted JSON; used by tests.
func (a *App) SetOutput(w io.Writer) { a.out = w }

// SetProvider swaps the cloud provider; used by tests.
func (a *App) SetProvider(p cloud.CloudProvider) { a.provider = p }

// SetClock overrides the time source; used by tests.
func (a *App) SetClock(now func() time.Time) { a.now = now }
