// internal/services/revalidate_service.go
package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jradiance/jradiance-backend/internal/config"
)

// RevalidateService pings the storefront frontend to drop cached renderings
// of pages a mutation touched. Best effort: a failed ping only costs cache
// freshness, so it is logged and never fails the mutation.
type RevalidateService struct {
	cfg    *config.Config
	client *http.Client
}

func NewRevalidateService(cfg *config.Config) *RevalidateService {
	return &RevalidateService{
		cfg: cfg,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Paths invalidates the given frontend paths asynchronously.
func (s *RevalidateService) Paths(paths ...string) {
	if s == nil || s.cfg.Frontend.RevalidateSecret == "" || len(paths) == 0 {
		return
	}

	go func() {
		body, err := json.Marshal(map[string]interface{}{
			"secret": s.cfg.Frontend.RevalidateSecret,
			"paths":  paths,
		})
		if err != nil {
			return
		}

		resp, err := s.client.Post(
			s.cfg.Frontend.BaseURL+"/api/revalidate",
			"application/json",
			bytes.NewReader(body),
		)
		if err != nil {
			logrus.WithError(err).WithField("paths", paths).Warn("Frontend revalidation failed")
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			logrus.WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"paths":  paths,
			}).Warn("Frontend revalidation rejected")
		}
	}()
}
