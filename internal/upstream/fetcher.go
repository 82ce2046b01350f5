// internal/upstream/fetcher.go
package upstream

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mobilesec-ms/reportgen/api/schemas"
	"github.com/mobilesec-ms/reportgen/internal/config"
)

// DefaultTimeout bounds a call when neither the service nor the defaults set one.
const DefaultTimeout = 10 * time.Second

// Snapshot is everything fetched for one request. APK is always populated when
// FetchAll succeeds; the optional scanners may be absent.
type Snapshot struct {
	APK     APKScan
	Secrets Outcome[FindingsScan]
	Crypto  Outcome[FindingsScan]
	Network Outcome[FindingsScan]
}

// Fetcher fans out one request's fetches and joins them.
type Fetcher struct {
	client    Client
	upstreams config.UpstreamsConfig
	limiters  map[schemas.Service]*rate.Limiter
	logger    *zap.Logger
}

// NewFetcher builds a Fetcher. Rate limiters are created once here and shared
// by every request.
func NewFetcher(client Client, upstreams config.UpstreamsConfig, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	limiters := make(map[schemas.Service]*rate.Limiter)
	for _, s := range schemas.Services {
		sc := upstreams.For(s)
		if sc.RateLimit > 0 {
			limiters[s] = rate.NewLimiter(rate.Limit(sc.RateLimit), sc.Burst)
		}
	}
	return &Fetcher{
		client:    client,
		upstreams: upstreams,
		limiters:  limiters,
		logger:    logger.Named("fetcher"),
	}
}

// FetchAll issues every requested fetch concurrently and waits for all of them.
// A failure of the mandatory APK scan cancels the others and returns a
// *MandatoryUpstreamError. Optional failures only log and leave the outcome absent.
func (f *Fetcher) FetchAll(ctx context.Context, jobs schemas.JobIDs) (*Snapshot, error) {
	if jobs.Get(schemas.ServiceAPKScanner) == "" {
		return nil, &MandatoryUpstreamError{Service: schemas.ServiceAPKScanner, Err: ErrMissingJobID}
	}

	snap := &Snapshot{}
	g, groupCtx := errgroup.WithContext(ctx)

	for _, ref := range jobs.References() {
		if ref.Mandatory {
			g.Go(func() error {
				apk, err := f.fetchAPK(groupCtx, ref)
				if err != nil {
					return &MandatoryUpstreamError{Service: ref.Service, JobID: ref.JobID, Err: err}
				}
				snap.APK = apk
				return nil
			})
			continue
		}

		// Each goroutine owns exactly one field of snap.
		slot := f.slot(snap, ref.Service)
		if slot == nil {
			continue
		}
		g.Go(func() error {
			*slot = f.fetchOptional(groupCtx, ref)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		f.logger.Error("Mandatory upstream failed, discarding optional results.", zap.Error(err))
		return nil, err
	}
	return snap, nil
}

func (f *Fetcher) slot(snap *Snapshot, service schemas.Service) *Outcome[FindingsScan] {
	switch service {
	case schemas.ServiceSecretHunter:
		return &snap.Secrets
	case schemas.ServiceCryptoCheck:
		return &snap.Crypto
	case schemas.ServiceNetworkInspector:
		return &snap.Network
	default:
		return nil
	}
}

func (f *Fetcher) fetchAPK(ctx context.Context, ref schemas.JobReference) (APKScan, error) {
	raw, err := f.fetchRaw(ctx, ref)
	if err != nil {
		return APKScan{}, err
	}
	return DecodeAPKScan(raw)
}

func (f *Fetcher) fetchOptional(ctx context.Context, ref schemas.JobReference) Outcome[FindingsScan] {
	raw, err := f.fetchRaw(ctx, ref)
	if err == nil {
		var scan FindingsScan
		if scan, err = DecodeFindingsScan(raw); err == nil {
			return Found(scan)
		}
	}

	if ctx.Err() != nil {
		// The group was cancelled by a mandatory failure; the result is discarded anyway.
		f.logger.Debug("Optional fetch cancelled.", zap.String("service", string(ref.Service)), zap.Error(err))
	} else {
		f.logger.Warn("UpstreamUnavailable: continuing without optional results.",
			zap.String("service", string(ref.Service)),
			zap.String("job_id", ref.JobID),
			zap.Error(err))
	}
	return Absent[FindingsScan](err)
}

// fetchRaw applies the per-service timeout and rate limit around one Client call.
// Waiting on the limiter counts against the timeout.
func (f *Fetcher) fetchRaw(ctx context.Context, ref schemas.JobReference) ([]byte, error) {
	timeout := f.upstreams.For(ref.Service).Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if limiter, ok := f.limiters[ref.Service]; ok {
		if err := limiter.Wait(callCtx); err != nil {
			return nil, fmt.Errorf("rate limiter for %s: %w", ref.Service, err)
		}
	}

	start := time.Now()
	raw, err := f.client.Fetch(callCtx, ref.Service, ref.JobID)
	f.logger.Debug("Upstream call finished.",
		zap.String("service", string(ref.Service)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ok", err == nil))
	if err != nil {
		return nil, err
	}
	return raw, nil
}
