package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pragyanetra/console/internal/cache"
	"github.com/pragyanetra/console/internal/config"
	"github.com/pragyanetra/console/internal/logging"
	"github.com/pragyanetra/console/internal/models"
	"github.com/pragyanetra/console/internal/monitoring"
)

// ErrMissingAPIKey means the metadata endpoint credentials are absent. This
// is a configuration error caught at construction, not a per-call failure.
var ErrMissingAPIKey = errors.New("video metadata API key not configured")

const cacheTTL = 24 * time.Hour

// Enricher resolves external video references into descriptive metadata.
// Resolution is strictly best-effort: a reference that cannot be resolved
// degrades to its raw form and is never dropped.
type Enricher struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *cache.Redis // nil disables caching
	log        zerolog.Logger
}

// NewEnricher creates an enricher. The cache is optional; pass nil to skip
// metadata caching.
func NewEnricher(cfg *config.YouTubeConfig, redisCache *cache.Redis) (*Enricher, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	rps := cfg.RPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}

	return &Enricher{
		apiKey:   cfg.APIKey,
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "video-metadata",
			Interval: 60 * time.Second,
			Timeout:  30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		cache: redisCache,
		log:   logging.NewLogger("enrich"),
	}, nil
}

// Resolve turns one reference URL into a video item. An unrecognized URL
// shape or a failed metadata lookup yields the raw variant with the URL
// preserved verbatim.
func (e *Enricher) Resolve(ctx context.Context, refURL string) models.VideoItem {
	videoID, ok := ExtractVideoID(refURL)
	if !ok {
		monitoring.RecordEnrichment("unresolved")
		return models.RawItem(refURL)
	}

	meta, err := e.lookup(ctx, videoID)
	if err != nil {
		monitoring.RecordEnrichment("failed")
		e.log.Warn().
			Err(err).
			Str("video_id", videoID).
			Msg("Metadata lookup failed, keeping raw reference")
		return models.RawItem(refURL)
	}

	monitoring.RecordEnrichment("enriched")
	return models.EnrichedItem(refURL, *meta)
}

// ResolveAll resolves N independent references concurrently. Items come back
// in input order; a failure for one reference never affects the others.
func (e *Enricher) ResolveAll(ctx context.Context, refURLs []string) []models.VideoItem {
	items := make([]models.VideoItem, len(refURLs))

	var wg sync.WaitGroup
	for i, ref := range refURLs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			items[i] = e.Resolve(ctx, ref)
		}(i, ref)
	}
	wg.Wait()

	return items
}

func (e *Enricher) lookup(ctx context.Context, videoID string) (*models.VideoMeta, error) {
	if meta := e.cached(ctx, videoID); meta != nil {
		return meta, nil
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.fetch(ctx, videoID)
	})
	if err != nil {
		return nil, err
	}

	meta := result.(*models.VideoMeta)
	e.store(ctx, videoID, meta)
	return meta, nil
}

// youtubeResponse mirrors the metadata endpoint's videos resource.
type youtubeResponse struct {
	Items []struct {
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
			LikeCount string `json:"likeCount"`
		} `json:"statistics"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
				Default struct {
					URL string `json:"url"`
				} `json:"default"`
			} `json:"thumbnails"`
		} `json:"snippet"`
	} `json:"items"`
}

func (e *Enricher) fetch(ctx context.Context, videoID string) (*models.VideoMeta, error) {
	q := url.Values{}
	q.Set("id", videoID)
	q.Set("part", "contentDetails,statistics,snippet")
	q.Set("key", e.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", e.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata transport error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata endpoint returned status %d", resp.StatusCode)
	}

	var data youtubeResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if len(data.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := data.Items[0]
	thumbnail := item.Snippet.Thumbnails.Medium.URL
	if thumbnail == "" {
		thumbnail = item.Snippet.Thumbnails.Default.URL
	}

	return &models.VideoMeta{
		Title:     item.Snippet.Title,
		Duration:  FormatDuration(item.ContentDetails.Duration),
		ViewCount: AbbreviateCount(item.Statistics.ViewCount),
		LikeCount: AbbreviateCount(item.Statistics.LikeCount),
		Thumbnail: thumbnail,
	}, nil
}

func (e *Enricher) cached(ctx context.Context, videoID string) *models.VideoMeta {
	if e.cache == nil {
		return nil
	}

	payload, err := e.cache.Client.Get(ctx, metaKey(videoID)).Bytes()
	if err != nil {
		monitoring.RecordEnrichCache(false)
		return nil
	}

	var meta models.VideoMeta
	if err := json.Unmarshal(payload, &meta); err != nil {
		return nil
	}
	monitoring.RecordEnrichCache(true)
	return &meta
}

func (e *Enricher) store(ctx context.Context, videoID string, meta *models.VideoMeta) {
	if e.cache == nil {
		return
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := e.cache.Client.Set(ctx, metaKey(videoID), payload, cacheTTL).Err(); err != nil {
		e.log.Debug().Err(err).Str("video_id", videoID).Msg("Metadata cache write failed")
	}
}

func metaKey(videoID string) string {
	return "ytmeta:" + videoID
}
