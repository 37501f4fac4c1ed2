package sigfoxrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	sigfoxexport "github.com/sigfox-demo/sigfox-telemetry/sigfox-export"
	sigfoxprovision "github.com/sigfox-demo/sigfox-telemetry/sigfox-provision"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

const csvSuffix = ".csv"

type ReadingSource interface {
	Query(ctx context.Context, deviceID string, since int64) ([]reading.SensorReading, error)
	Latest(ctx context.Context, deviceID string) (*reading.SensorReading, error)
}

type TableStatusSource interface {
	TableStatus(ctx context.Context, name string) (sigfoxprovision.TableStatus, error)
}

type tableStatus struct {
	Table  string                      `json:"table"`
	Status sigfoxprovision.TableStatus `json:"status"`
}

// Routes mounts the read API on router:
//
//	GET /readings/{deviceId}         readings as JSON, optionally ?since=<unix>
//	GET /readings/{deviceId}.csv     the same readings as chart rows in CSV
//	GET /readings/{deviceId}/latest  the most recent reading
//	GET /tables/{name}/status        provisioning status of a table
func Routes(router chi.Router, readings ReadingSource, tables TableStatusSource) chi.Router {
	router.Get("/readings/{deviceId}", CacheControl(handleReadings(readings), 5))
	router.Get("/readings/{deviceId}/latest", CacheControl(handleLatest(readings), 5))
	router.Get("/tables/{name}/status", handleTableStatus(tables))
	return router
}

func handleReadings(readings ReadingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		deviceID := chi.URLParam(req, "deviceId")
		asCSV := strings.HasSuffix(deviceID, csvSuffix)
		deviceID = strings.TrimSuffix(deviceID, csvSuffix)

		var since int64
		if v := req.URL.Query().Get("since"); v != "" {
			var err error
			if since, err = strconv.ParseInt(v, 10, 64); err != nil {
				http.Error(w, "since must be a unix timestamp", http.StatusBadRequest)
				return
			}
		}

		found, err := readings.Query(req.Context(), deviceID, since)
		if err != nil {
			serverError(w, req, err)
			return
		}

		if asCSV {
			var buf bytes.Buffer
			if err := sigfoxexport.WriteCSV(&buf, reading.Rows(found)); err != nil {
				serverError(w, req, err)
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Write(buf.Bytes())
			return
		}

		if found == nil {
			found = []reading.SensorReading{}
		}
		writeJSON(w, req, found)
	}
}

func handleLatest(readings ReadingSource) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		deviceID := chi.URLParam(req, "deviceId")
		latest, err := readings.Latest(req.Context(), deviceID)
		if err != nil {
			serverError(w, req, err)
			return
		}
		if latest == nil {
			http.Error(w, "no readings for device "+deviceID, http.StatusNotFound)
			return
		}
		writeJSON(w, req, latest)
	}
}

func handleTableStatus(tables TableStatusSource) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		name := chi.URLParam(req, "name")
		status, err := tables.TableStatus(req.Context(), name)
		if errors.Is(err, sigfoxprovision.ErrNotFound) {
			http.Error(w, "table not found: "+name, http.StatusNotFound)
			return
		}
		if err != nil {
			serverError(w, req, err)
			return
		}
		writeJSON(w, req, tableStatus{Table: name, Status: status})
	}
}

func writeJSON(w http.ResponseWriter, req *http.Request, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		serverError(w, req, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func serverError(w http.ResponseWriter, req *http.Request, err error) {
	zerolog.Ctx(req.Context()).Warn().Err(err).Str("path", req.URL.Path).Msg("request failed")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
