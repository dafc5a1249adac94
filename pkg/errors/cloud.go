package errors

import (
	"fmt"
	"strings"
)

// ErrDescribeInstances wraps failures listing instances in one region.
type ErrDescribeInstances struct {
	Region string
	Err    error
}

func (e ErrDescribeInstances) Error() string {
	return fmt.Sprintf("failed to describe instances in region %s: %v", e.Region, e.Err)
}

func (e ErrDescribeInstances) Unwrap() error {
	return e.Err
}

func NewDescribeInstances(region string, err error) error {
	return ErrDescribeInstances{Region: region, Err: err}
}

// ErrDescribeRegions wraps failures listing available regions.
type ErrDescribeRegions struct {
	Err error
}

func (e ErrDescribeRegions) Error() string {
	return fmt.Sprintf("failed to describe regions: %v", e.Err)
}

func (e ErrDescribeRegions) Unwrap() error {
	return e.Err
}

func NewDescribeRegions(err error) error {
	return ErrDescribeRegions{Err: err}
}

// ErrAuthFailure marks a credential rejection by the provider API.
// Retrying cannot fix it, so the whole run aborts.
type ErrAuthFailure struct {
	Provider string
	Err      error
}

func (e ErrAuthFailure) Error() string {
	return fmt.Sprintf("authentication failed for provider %s: %v", e.Provider, e.Err)
}

func (e ErrAuthFailure) Unwrap() error {
	return e.Err
}

func NewAuthFailure(provider string, err error) error {
	return ErrAuthFailure{Provider: provider, Err: err}
}

// ErrPartialFetch reports a multi-region fetch that lost one or more
// regions but still produced usable results from the rest.
type ErrPartialFetch struct {
	FailedRegions []string
	Errs          []error
}

func (e ErrPartialFetch) Error() string {
	return fmt.Sprintf("fetch incomplete, failed regions: %s", strings.Join(e.FailedRegions, ", "))
}

func NewPartialFetch(regions []string, errs []error) error {
	return ErrPartialFetch{FailedRegions: regions, Errs: errs}
}

// ErrAllRegionsFailed means no region produced results at all.
type ErrAllRegionsFailed struct {
	Errs []error
}

func (e ErrAllRegionsFailed) Error() string {
	return fmt.Sprintf("all regions failed: %v", e.Errs)
}

func NewAllRegionsFailed(errs []error) error {
	return ErrAllRegionsFailed{Errs: errs}
}
