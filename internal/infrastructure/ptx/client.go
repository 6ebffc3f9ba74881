// Package ptx talks to the MOTC PTX transit-data platform. Requests are
// signed per key with HMAC-SHA1 over the x-date header; the client cycles
// through credential candidates when the platform rejects one.
package ptx

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/triple-t/railbot/internal/config"
	"github.com/triple-t/railbot/internal/domain"
	"github.com/triple-t/railbot/internal/domain/repository"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	keys    []config.FeedCredential
	retries int
	backoff time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(cfg *config.FeedConfig, logger *zap.Logger) repository.ScheduleFeed {
	return &Client{
		baseURL: cfg.BaseURL,
		keys:    cfg.Keys,
		retries: cfg.RetriesPerKey,
		backoff: cfg.RetryBackoff,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

// Wire shapes for the v2 Rail daily timetable endpoints. TRA and THSR share
// the envelope; only TRA carries a train type code.
type dailyTimetable struct {
	DailyTrainInfo dailyTrainInfo `json:"DailyTrainInfo"`
	StopTimes      []stopTime     `json:"StopTimes"`
}

type dailyTrainInfo struct {
	TrainNo       string `json:"TrainNo"`
	TrainTypeCode string `json:"TrainTypeCode"`
}

type stopTime struct {
	StationID     string `json:"StationID"`
	ArrivalTime   string `json:"ArrivalTime"`
	DepartureTime string `json:"DepartureTime"`
}

// rejection is the platform's error envelope. A well-formed payload is a
// JSON array, so a top-level object with a message means the request was
// refused (bad key, quota, date out of range).
type rejection struct {
	Message string `json:"message"`
}

func (c *Client) FetchDailyTimetables(ctx context.Context, mode domain.Mode, day time.Time) ([]domain.RawTimetable, error) {
	url := fmt.Sprintf("%s/v2/Rail/%s/DailyTimetable/TrainDate/%s?$format=JSON",
		c.baseURL, mode, day.Format("2006-01-02"))

	var lastErr error
	for i, key := range c.keys {
		body, err := c.fetchWithKey(ctx, url, key)
		if err == nil {
			return decodeTimetables(body)
		}
		lastErr = err
		if _, rejected := err.(*domain.SourceError); rejected && i < len(c.keys)-1 {
			c.logger.Warn("Feed rejected credential, trying next",
				zap.String("app_id", key.AppID),
				zap.Error(err))
			continue
		}
		break
	}
	if lastErr == nil {
		lastErr = &domain.SourceError{Message: "no feed credentials configured"}
	}
	return nil, lastErr
}

// fetchWithKey retries transport failures up to the configured count before
// giving up on the key. Rejections are returned immediately so the caller
// can rotate.
func (c *Client) fetchWithKey(ctx context.Context, url string, key config.FeedCredential) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &domain.TransientError{Err: ctx.Err()}
			case <-time.After(c.backoff):
			}
		}

		body, err := c.doRequest(ctx, url, key)
		if err == nil {
			var rej rejection
			if jsonErr := json.Unmarshal(body, &rej); jsonErr == nil && rej.Message != "" {
				return nil, &domain.SourceError{Message: rej.Message}
			}
			return body, nil
		}
		lastErr = err
		c.logger.Warn("Feed request failed",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, &domain.TransientError{Err: lastErr}
}

func (c *Client) doRequest(ctx context.Context, url string, key config.FeedCredential) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	xdate := time.Now().UTC().Format(http.TimeFormat)
	req.Header.Set("x-date", xdate)
	req.Header.Set("Authorization", signature(key, xdate))
	// Accept-Encoding stays unset so the transport negotiates gzip and
	// decompresses the body before we decode it.

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}
	return body, nil
}

// signature builds the platform's HMAC authorization header for the x-date
// value being sent.
func signature(key config.FeedCredential, xdate string) string {
	mac := hmac.New(sha1.New, []byte(key.AppKey))
	mac.Write([]byte("x-date: " + xdate))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf(`hmac username="%s", algorithm="hmac-sha1", headers="x-date", signature="%s"`,
		key.AppID, sig)
}

func decodeTimetables(body []byte) ([]domain.RawTimetable, error) {
	var wire []dailyTimetable
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &domain.SourceError{Message: fmt.Sprintf("malformed payload: %v", err)}
	}

	tables := make([]domain.RawTimetable, 0, len(wire))
	for _, t := range wire {
		raw := domain.RawTimetable{
			TrainNo:       t.DailyTrainInfo.TrainNo,
			TrainTypeCode: t.DailyTrainInfo.TrainTypeCode,
			StopTimes:     make([]domain.RawStop, 0, len(t.StopTimes)),
		}
		for _, s := range t.StopTimes {
			raw.StopTimes = append(raw.StopTimes, domain.RawStop{
				StationID:     s.StationID,
				ArrivalTime:   s.ArrivalTime,
				DepartureTime: s.DepartureTime,
			})
		}
		tables = append(tables, raw)
	}
	return tables, nil
}
