package cloud

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"

	config "github.com/oldmonad/cvmInventory/pkg/config/cloud"
	"github.com/oldmonad/cvmInventory/pkg/errors"
	"github.com/oldmonad/cvmInventory/pkg/logger"
	"go.uber.org/zap"
)

const maxFetchWorkers = 8

type regionResult struct {
	region    string
	instances []Instance
	err       error
}

// FetchAll lists instances across regions with a bounded worker pool. Each
// worker accumulates into its own result; merging happens only after all
// workers finish, keyed by instance id so completion order cannot change
// the outcome.
//
// A credential rejection aborts the whole run. Any other per-region failure
// is tolerated: the surviving regions are returned together with an
// ErrPartialFetch naming the regions that were lost. Only when every region
// fails does the fetch return no instances at all.
func FetchAll(ctx context.Context, provider CloudProvider, cfg config.ProviderConfig, regions []string) ([]Instance, error) {
	if len(regions) == 0 {
		return []Instance{}, nil
	}

	workers := len(regions)
	if workers > maxFetchWorkers {
		workers = maxFetchWorkers
	}

	jobs := make(chan string, len(regions))
	results := make(chan regionResult, len(regions))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for region := range jobs {
				instances, err := provider.FetchInstances(ctx, cfg, region)
				results <- regionResult{region: region, instances: instances, err: err}
			}
		}()
	}

	for _, region := range regions {
		jobs <- region
	}
	close(jobs)

	wg.Wait()
	close(results)

	merged := make(map[string]Instance)
	var failedRegions []string
	var failures []error

	for result := range results {
		if result.err != nil {
			var auth errors.ErrAuthFailure
			if stderrors.As(result.err, &auth) {
				return nil, result.err
			}
			logger.GetLogger().Warn("region fetch failed",
				zap.String("region", result.region), zap.Error(result.err))
			failedRegions = append(failedRegions, result.region)
			failures = append(failures, result.err)
			continue
		}
		for _, instance := range result.instances {
			merged[instance.InstanceID] = instance
		}
	}

	if len(failedRegions) == len(regions) {
		return nil, errors.NewAllRegionsFailed(failures)
	}

	instances := make([]Instance, 0, len(merged))
	for _, instance := range merged {
		instances = append(instances, instance)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].InstanceID < instances[j].InstanceID
	})

	if len(failedRegions) > 0 {
		sort.Strings(failedRegions)
		return instances, errors.NewPartialFetch(failedRegions, failures)
	}
	return instances, nil
}
