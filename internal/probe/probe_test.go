package probe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/mvp/internal/adapters/http/api"
	app "github.com/okian/mvp/internal/app"
	"github.com/okian/mvp/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, err := app.New()
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	srv := httptest.NewServer(api.NewServer(svc, svc).Handler(context.Background()))
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running API", t, func() {
		srv := newAPIServer(t)
		ctx := context.Background()

		convey.Convey("When probing it for several rounds", func() {
			stats, err := Run(ctx, &Config{BaseURL: srv.URL, Rounds: 3, Concurrency: 2, Timeout: time.Second})

			convey.Convey("Then every check should pass", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stats.Rounds, convey.ShouldEqual, 3)
				convey.So(stats.Failed, convey.ShouldEqual, 0)
				// healthcheck + 3 * (list + 2 messages + 3 records + not found)
				convey.So(stats.Checks, convey.ShouldEqual, 1+3*7)
				convey.So(stats.Passed, convey.ShouldEqual, stats.Checks)
				convey.So(stats.Requests, convey.ShouldEqual, 1+3*7)
				convey.So(stats.Duration, convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the base URL has a trailing slash", func() {
			_, err := Run(ctx, &Config{BaseURL: srv.URL + "/", Verbose: true})

			convey.Convey("Then it should still pass", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}

func TestRunAgainstBrokenServers(t *testing.T) {
	convey.Convey("Given servers that break the contract", t, func() {
		ctx := context.Background()

		convey.Convey("When the service is unhealthy", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			stats, err := Run(ctx, &Config{BaseURL: srv.URL})

			convey.Convey("Then the run should stop at the health check", func() {
				convey.So(errors.Is(err, ErrCheckFailed), convey.ShouldBeTrue)
				convey.So(stats.Rounds, convey.ShouldEqual, 0)
				convey.So(stats.Checks, convey.ShouldEqual, 1)
				convey.So(stats.Requests, convey.ShouldEqual, 1)
				convey.So(stats.Failed, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When unknown ids are served", func() {
			upstream := newAPIServer(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/examples/"+UnknownID {
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(Record{ID: UnknownID})
					return
				}
				proxyTo(w, r, upstream.URL)
			}))
			defer srv.Close()

			_, err := Run(ctx, &Config{BaseURL: srv.URL})

			convey.Convey("Then the not found check should fail", func() {
				convey.So(errors.Is(err, ErrCheckFailed), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "returned 200, want 404")
			})
		})

		convey.Convey("When a fetched record differs from the listed one", func() {
			upstream := newAPIServer(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/api/examples/2" {
					w.Header().Set("Content-Type", "application/json")
					_ = json.NewEncoder(w).Encode(Record{ID: "2", Name: "Renamed", Description: "This is example 2"})
					return
				}
				proxyTo(w, r, upstream.URL)
			}))
			defer srv.Close()

			_, err := Run(ctx, &Config{BaseURL: srv.URL})

			convey.Convey("Then the mismatch should be reported", func() {
				convey.So(errors.Is(err, ErrCheckFailed), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "mismatch")
			})
		})

		convey.Convey("When the collection has the wrong size", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch r.URL.Path {
				case "/healthcheck":
					_, _ = w.Write([]byte(`{"status":"healthy"}`))
				default:
					_, _ = w.Write([]byte(`[]`))
				}
			}))
			defer srv.Close()

			stats, err := Run(ctx, &Config{BaseURL: srv.URL})

			convey.Convey("Then the list check should fail", func() {
				convey.So(errors.Is(err, ErrCheckFailed), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "listed 0 records")
				convey.So(stats.Passed, convey.ShouldEqual, 1)
			})
		})
	})
}

func TestRequestIDs(t *testing.T) {
	convey.Convey("Given a server recording request ids", t, func() {
		var (
			mu  sync.Mutex
			ids = map[string]int{}
		)
		upstream := newAPIServer(t)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			ids[r.Header.Get(RequestIDHeader)]++
			mu.Unlock()
			proxyTo(w, r, upstream.URL)
		}))
		defer srv.Close()

		stats, err := Run(context.Background(), &Config{BaseURL: srv.URL})

		convey.Convey("Then every request should carry a distinct id", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(ids), convey.ShouldEqual, stats.Requests)
			convey.So(ids, convey.ShouldNotContainKey, "")
		})
	})
}

func TestHTTPClientSent(t *testing.T) {
	convey.Convey("Given an HTTP client", t, func() {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNoContent)
		}))
		defer srv.Close()
		c := newHTTPClient(srv.URL, time.Second)
		ctx := context.Background()

		convey.Convey("When it sends several requests", func() {
			for range 3 {
				_, err := c.get(ctx, "/")
				convey.So(err, convey.ShouldBeNil)
			}

			convey.Convey("Then Sent should match what the server saw", func() {
				convey.So(c.Sent(), convey.ShouldEqual, 3)
				convey.So(hits.Load(), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When the server is gone", func() {
			srv.Close()
			_, err := c.get(ctx, "/")

			convey.Convey("Then the failed attempt should still be counted", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(c.Sent(), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	convey.Convey("Given probe configs", t, func() {
		convey.Convey("Then zero values should get defaults", func() {
			c, err := normalize(nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(c, convey.ShouldResemble, Config{
				BaseURL:     DefaultBaseURL,
				Rounds:      DefaultRounds,
				Concurrency: DefaultConcurrency,
				Timeout:     DefaultTimeout,
			})
		})

		convey.Convey("And negative values should be rejected", func() {
			_, err := Run(context.Background(), &Config{Rounds: -1})
			convey.So(errors.Is(err, ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

// proxyTo replays r against target and copies the answer back.
func proxyTo(w http.ResponseWriter, r *http.Request, target string) {
	req, _ := http.NewRequestWithContext(r.Context(), r.Method, target+r.URL.RequestURI(), http.NoBody)
	req.Header = r.Header.Clone()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
