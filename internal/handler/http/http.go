// Package httphandler exposes the read API the pages consume. Content
// endpoints never surface an error state: the service contract guarantees
// there is always something to serve.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/cosmicclassroom/contentd/internal/common"
	"github.com/cosmicclassroom/contentd/internal/entity"
)

var dateKeyRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type ContentService interface {
	GetContent(ctx context.Context) *entity.ContentBundle
	GetStatus() entity.DataStatus
	Archives() ([]string, error)
	Archive(dateKey string) (*entity.ContentBundle, error)
}

type SpaceService interface {
	ISSPosition(ctx context.Context) (*entity.ISSPosition, error)
	ISSCrew(ctx context.Context) ([]entity.CrewMember, error)
	LatestMarsPhoto(ctx context.Context) (*entity.MarsPhoto, error)
	News(ctx context.Context) ([]entity.NewsArticle, error)
}

// contentResponse is a bundle with the freshness status appended at serve
// time; the status is never persisted with the bundle.
type contentResponse struct {
	*entity.ContentBundle
	DataStatus entity.DataStatus `json:"dataStatus"`
}

func NewContentHandler(srv ContentService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ContentHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("content").Inc()

		status := srv.GetStatus()
		observeSnapshotAge(status.Age)

		writeJSON(w, log, contentResponse{
			ContentBundle: srv.GetContent(r.Context()),
			DataStatus:    status,
		})
	}
}

func NewStatusHandler(srv ContentService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "StatusHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("status").Inc()

		status := srv.GetStatus()
		observeSnapshotAge(status.Age)

		writeJSON(w, log, status)
	}
}

func NewArchiveListHandler(srv ContentService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ArchiveListHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("archives").Inc()

		keys, err := srv.Archives()
		if err != nil {
			http.Error(w, "Cannot list archives", http.StatusInternalServerError)

			return
		}

		if keys == nil {
			keys = []string{}
		}

		writeJSON(w, log, map[string][]string{"archives": keys})
	}
}

func NewArchiveHandler(srv ContentService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ArchiveHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("archive").Inc()

		dateKey := r.PathValue("date")
		if !dateKeyRegexp.MatchString(dateKey) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		bundle, err := srv.Archive(dateKey)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrArchiveNotFound):
				http.Error(w, "Archive not found", http.StatusNotFound)
			default:
				http.Error(w, "Cannot read archive", http.StatusInternalServerError)
			}

			return
		}

		writeJSON(w, log, bundle)
	}
}

func NewISSPositionHandler(srv SpaceService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ISSPositionHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("iss_position").Inc()

		pos, err := srv.ISSPosition(r.Context())
		if err != nil {
			upstreamError(w, log, "iss_position", err)

			return
		}

		writeJSON(w, log, pos)
	}
}

func NewISSCrewHandler(srv SpaceService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ISSCrewHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("iss_crew").Inc()

		crew, err := srv.ISSCrew(r.Context())
		if err != nil {
			upstreamError(w, log, "iss_crew", err)

			return
		}

		writeJSON(w, log, map[string]any{"crew": crew})
	}
}

func NewMarsPhotoHandler(srv SpaceService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "MarsPhotoHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("mars_photo").Inc()

		photo, err := srv.LatestMarsPhoto(r.Context())
		if err != nil {
			upstreamError(w, log, "mars_photo", err)

			return
		}

		if photo == nil {
			http.Error(w, "No photo available", http.StatusNotFound)

			return
		}

		writeJSON(w, log, photo)
	}
}

func NewNewsHandler(srv SpaceService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "NewsHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		requestsTotal.WithLabelValues("news").Inc()

		articles, err := srv.News(r.Context())
		if err != nil {
			upstreamError(w, log, "news", err)

			return
		}

		writeJSON(w, log, map[string]any{"articles": articles})
	}
}

func NewHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

func upstreamError(w http.ResponseWriter, log *slog.Logger, endpoint string, err error) {
	upstreamErrorsTotal.WithLabelValues(endpoint).Inc()
	log.Error("Upstream call failed", slog.Any("error", err))

	http.Error(w, "Upstream unavailable", http.StatusBadGateway)
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Cannot encode response", slog.Any("error", err))
	}
}
