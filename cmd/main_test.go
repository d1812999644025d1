package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/okian/clanboard/internal/adapters/repository"
	app "github.com/okian/clanboard/internal/app"
	"github.com/okian/clanboard/internal/config"
	"github.com/okian/clanboard/pkg/logger"
	"github.com/okian/clanboard/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func setenv(kv map[string]string) func() {
	for k, v := range kv {
		_ = os.Setenv(k, v)
	}
	return func() {
		for k := range kv {
			_ = os.Unsetenv(k)
		}
	}
}

func TestConfigFromEnvironment(t *testing.T) {
	convey.Convey("Given CLANBOARD_ environment variables", t, func() {
		defer setenv(map[string]string{
			"CLANBOARD_ADDR":         ":8080",
			"CLANBOARD_QUEUE_SIZE":   "1000",
			"CLANBOARD_WORKER_COUNT": "4",
			"CLANBOARD_AUTO_CLANS":   "#2PR8R8V8P,#PYLQ",
		})()

		convey.Convey("Then configuration picks them up", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			convey.So(cfg.AutoClans, convey.ShouldResemble, []string{"#2PR8R8V8P", "#PYLQ"})
		})
	})

	convey.Convey("Given an empty listen address", t, func() {
		defer setenv(map[string]string{"CLANBOARD_ADDR": ""})()

		convey.Convey("Then loading fails", func() {
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(cfg, convey.ShouldBeNil)
		})
	})
}

func TestHandlerWiring(t *testing.T) {
	convey.Convey("Given a service built from default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		cfg.AutoClans = nil
		svc := app.New(repository.NewMemoryStore(), app.FromConfig(cfg)...)
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		h := newHandler(ctx, cfg, svc)
		get := func(path string) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			return w
		}

		convey.Convey("Then health, docs, stats and the API are routed", func() {
			convey.So(get("/healthz").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/openapi.yaml").Code, convey.ShouldEqual, http.StatusOK)
			convey.So(get("/stats").Body.String(), convey.ShouldContainSubstring, `"started":true`)
			convey.So(get("/api/v2/leadership/assessments/latest?clanTag=%232PR8R8V8P").Code, convey.ShouldEqual, http.StatusNotFound)
		})

		convey.Convey("Then service gauges can be refreshed", func() {
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)

			done := make(chan struct{})
			tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			go func() {
				startServiceMetricsUpdater(tctx, svc)
				close(done)
			}()
			<-done
		})
	})
}

func TestRuntimeCollectors(t *testing.T) {
	convey.Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		convey.Convey("When runtime collectors are registered twice", func() {
			registerRuntimeCollectors(reg)
			convey.So(func() { registerRuntimeCollectors(reg) }, convey.ShouldNotPanic)

			convey.Convey("Then go runtime series are gathered", func() {
				families, err := reg.Gather()
				convey.So(err, convey.ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "go_") {
						found = true
					}
				}
				convey.So(found, convey.ShouldBeTrue)
			})
		})

		convey.Convey("Then the process registry is usable", func() {
			convey.So(metrics.GetRegistry(), convey.ShouldNotBeNil)
		})
	})
}
