// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSerializeWritesNeverOverlaps(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	handler := SerializeWrites()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusNoContent)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/api/categories/x/move", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)
		}()
	}
	wg.Wait()

	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("max concurrent writes: got %d, want 1", got)
	}
}

func TestSerializeWritesLetsReadsThrough(t *testing.T) {
	release := make(chan struct{})
	writeStarted := make(chan struct{})

	handler := SerializeWrites()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			close(writeStarted)
			<-release
		}
		w.WriteHeader(http.StatusOK)
	}))

	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/categories", nil)
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}()
	<-writeStarted

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		done <- rr.Code
	}()

	select {
	case code := <-done:
		if code != http.StatusOK {
			t.Errorf("status: got %d, want 200", code)
		}
	case <-time.After(time.Second):
		t.Error("read was blocked by an in-flight write")
	}
	close(release)
}
