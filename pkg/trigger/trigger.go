package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/reviewbridge/reviewbridge-api/pkg/httpclient"
	"github.com/reviewbridge/reviewbridge-api/pkg/logger"
	"go.uber.org/zap"
)

const callTimeout = 10 * time.Second

// CallAsync calls triggerURL with recordID appended, in the background.
// An empty triggerURL is a no-op. Failures are logged and never reported to
// the caller. The returned channel is closed once the call has finished.
func CallAsync(triggerURL, recordID string, httpClient httpclient.Client) <-chan struct{} {
	done := make(chan struct{})
	if triggerURL == "" {
		close(done)
		return done
	}

	go func() {
		defer close(done)

		// detached from the request; the response has usually been sent already
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		targetURL := fmt.Sprintf("%s%s", triggerURL, recordID)

		resp, err := httpclient.Get(ctx, httpClient, targetURL)
		if err != nil {
			logger.Error("Failed to call trigger URL",
				zap.Error(err),
				zap.String("url", targetURL),
				zap.String("record_id", recordID))
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Info("Trigger URL called successfully",
				zap.String("url", targetURL),
				zap.String("record_id", recordID),
				zap.Int("status_code", resp.StatusCode))
		} else {
			logger.Warn("Trigger URL returned non-success status",
				zap.String("url", targetURL),
				zap.String("record_id", recordID),
				zap.Int("status_code", resp.StatusCode))
		}
	}()

	return done
}
