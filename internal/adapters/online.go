package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	polyline "github.com/twpayne/go-polyline"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/pkg/apperror"
	"github.com/vrprouting/vrp-service/pkg/config"
)

// onlineRequestBody is the wire shape sent to a generic online matrix
// provider: a deduplicated coordinate list plus per-origin/destination
// index references, mirroring how most routing APIs (OSRM/Mapbox-style
// table services) avoid resending duplicate coordinates.
type onlineRequestBody struct {
	Coordinates  [][2]float64 `json:"coordinates"` // [lon, lat] per provider convention
	Sources      []int        `json:"sources"`
	Destinations []int        `json:"destinations"`
	Mode         string       `json:"mode"`
}

// onlineResponseBody is the expected provider response: full dense
// matrices over Coordinates, which Online then slices down to the
// requested origin/destination sub-matrix.
type onlineResponseBody struct {
	Distances [][]float64 `json:"distances"`
	Durations [][]float64 `json:"durations"`
	// Geometry optionally carries an encoded polyline per origin/destination
	// pair; Compute neither reads nor decodes it.
	Geometry [][]string `json:"geometry"`
}

// Online calls a remote HTTP matrix provider. Coordinates are deduplicated
// before the request body is built, and the O×D sub-matrix is rebuilt from
// the provider's dense response afterward, per §4.3's online-adapter
// contract.
type Online struct {
	Name     string
	Endpoint config.AdapterEndpoint
	Retry    config.RetryConfig
	Client   *http.Client
}

// NewOnline constructs an Online adapter for one configured provider
// endpoint.
func NewOnline(name string, endpoint config.AdapterEndpoint, retry config.RetryConfig) *Online {
	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Online{
		Name:     name,
		Endpoint: endpoint,
		Retry:    retry,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Compute implements Adapter.
func (o *Online) Compute(ctx context.Context, req *Request) (*Matrix, error) {
	if err := req.FillAndCoerce(); err != nil {
		return nil, err
	}
	if !o.Endpoint.Enabled {
		return nil, ErrMatrixRequest(o.Name, "adapter is disabled")
	}

	dedup := make(map[geo.Coordinate]int)
	var coords [][2]float64

	resolve := func(p Point) (int, error) {
		c, err := p.RequireGeo()
		if err != nil {
			return 0, err
		}
		if idx, ok := dedup[c]; ok {
			return idx, nil
		}
		idx := len(coords)
		dedup[c] = idx
		coords = append(coords, [2]float64{c.Lon, c.Lat})
		return idx, nil
	}

	sources := make([]int, len(req.Origins))
	for i, p := range req.Origins {
		idx, err := resolve(p)
		if err != nil {
			return nil, err
		}
		sources[i] = idx
	}

	destinations := make([]int, len(req.Destinations))
	for j, p := range req.Destinations {
		idx, err := resolve(p)
		if err != nil {
			return nil, err
		}
		destinations[j] = idx
	}

	body := onlineRequestBody{
		Coordinates:  coords,
		Sources:      sources,
		Destinations: destinations,
		Mode:         string(req.Mode),
	}

	resp, err := o.postWithRetry(ctx, body)
	if err != nil {
		return nil, err
	}

	distances := make([][]int64, len(sources))
	var durations [][]int64
	if req.WantDurations {
		durations = make([][]int64, len(sources))
	}

	for i, srcIdx := range sources {
		if srcIdx >= len(resp.Distances) {
			return nil, ErrMatrixRequest(o.Name, "response matrix smaller than requested coordinate set")
		}
		distRow := make([]int64, len(destinations))
		var durRow []int64
		if req.WantDurations {
			durRow = make([]int64, len(destinations))
		}
		for j, dstIdx := range destinations {
			if dstIdx >= len(resp.Distances[srcIdx]) {
				return nil, ErrMatrixRequest(o.Name, "response row shorter than requested destination set")
			}
			distRow[j] = int64(math.Round(resp.Distances[srcIdx][dstIdx]))
			if req.WantDurations && resp.Durations != nil {
				durRow[j] = int64(math.Round(resp.Durations[srcIdx][dstIdx]))
			}
		}
		distances[i] = distRow
		if req.WantDurations {
			durations[i] = durRow
		}
	}

	return &Matrix{Distances: distances, Durations: durations}, nil
}

func (o *Online) postWithRetry(ctx context.Context, body onlineRequestBody) (*onlineResponseBody, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMatrixProviderFailure, "online adapter: encode request")
	}

	attempts := o.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := o.Retry.InitialBackoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperror.Wrap(ctx.Err(), apperror.CodeMatrixProviderFailure, "online adapter: context cancelled during retry")
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * o.backoffMultiplier())
			if o.Retry.MaxBackoff > 0 && backoff > o.Retry.MaxBackoff {
				backoff = o.Retry.MaxBackoff
			}
		}

		resp, err := o.doOnce(ctx, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (o *Online) backoffMultiplier() float64 {
	if o.Retry.BackoffMultiplier <= 0 {
		return 2.0
	}
	return o.Retry.BackoffMultiplier
}

func (o *Online) doOnce(ctx context.Context, payload []byte) (*onlineResponseBody, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMatrixProviderFailure, "online adapter: build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.Endpoint.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.Endpoint.APIKey)
	}

	httpResp, err := o.Client.Do(httpReq)
	if err != nil {
		return nil, ErrMatrixRequest(o.Name, err.Error())
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMatrixProviderFailure, "online adapter: read response")
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, ErrMatrixRequest(o.Name, fmt.Sprintf("status %d: %s", httpResp.StatusCode, string(raw)))
	}

	var parsed onlineResponseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeMatrixProviderFailure, "online adapter: decode response")
	}
	return &parsed, nil
}

// DecodeGeometry decodes a provider's encoded polyline string into a
// coordinate sequence. It is a standalone helper; Compute does not call it.
func DecodeGeometry(encoded string) ([]geo.Coordinate, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInputInvalid, "online adapter: decode polyline")
	}
	points := make([]geo.Coordinate, len(coords))
	for i, c := range coords {
		points[i] = geo.Coordinate{Lat: c[0], Lon: c[1]}
	}
	return points, nil
}
