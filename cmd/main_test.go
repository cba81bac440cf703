package main

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/duelodds/internal/config"
	"github.com/okian/duelodds/pkg/logger"
)

func TestNewHandler(t *testing.T) {
	convey.Convey("Given a handler built from the default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.WorkerCount = 2
		svc := newService(cfg, logger.NewNop())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()
		h := newHandler(ctx, svc)

		convey.Convey("When the sixteen-event tie probability is requested", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/probability",
				strings.NewReader(`{"kind":"tie","events":16,"win_prob":0.5}`))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			convey.Convey("Then the exact value should be returned", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body struct {
					Probability float64 `json:"probability"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(body.Probability, convey.ShouldEqual, 0.020050048828125)
			})
		})

		convey.Convey("When a batch is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/v1/batch",
				strings.NewReader(`{"queries":[{"kind":"win","events":3,"win_prob":1},{"kind":"loss","events":3,"win_prob":0}]}`))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			convey.Convey("Then both results should be certain", func() {
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				var body struct {
					Results []struct {
						Probability float64 `json:"probability"`
					} `json:"results"`
				}
				convey.So(json.Unmarshal(w.Body.Bytes(), &body), convey.ShouldBeNil)
				convey.So(len(body.Results), convey.ShouldEqual, 2)
				convey.So(body.Results[0].Probability, convey.ShouldEqual, 1.0)
				convey.So(body.Results[1].Probability, convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When the docs routes are requested", func() {
			for _, path := range []string{"/openapi.yaml", "/api-docs", "/healthz", "/metrics", "/stats"} {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a free local port", t, func() {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		addr := ln.Addr().String()
		convey.So(ln.Close(), convey.ShouldBeNil)

		cfg := config.New()
		cfg.Addr = addr
		cfg.WorkerCount = 1
		cfg.MetricsNamespace = "duelodds_run"

		convey.Convey("When the server runs until its context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.NewNop()) }()

			var resp *http.Response
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + addr + "/healthz")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			_ = resp.Body.Close()

			resp, err = http.Get("http://" + addr + "/metrics")
			convey.So(err, convey.ShouldBeNil)
			body, err := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(body), convey.ShouldContainSubstring, "duelodds_run_calculator_")

			cancel()

			convey.Convey("Then it should shut down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(10 * time.Second):
					t.Fatal("server did not stop")
				}
			})
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}
