package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: "unique_violation"},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: "deadlock"},
		{name: "other pg", err: &pgconn.PgError{Code: "42P01"}, want: "pg_42P01"},
		{name: "timeout", err: context.DeadlineExceeded, want: "timeout"},
		{name: "connection", err: errors.New("connection refused"), want: "connection"},
		{name: "unknown", err: errors.New("boom"), want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyDBErr(tt.err); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestObserveDB_NilPromRunsFn(t *testing.T) {
	var p *Prom
	called := false

	err := p.ObserveDB("op", func() error {
		called = true
		return nil
	})

	if err != nil || !called {
		t.Fatalf("called=%v err=%v", called, err)
	}
}

func TestObserveDB_NoRowsIsNotAnError(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	err := p.ObserveDB("users.get_by_email", func() error { return pgx.ErrNoRows })
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("error should pass through, got %v", err)
	}

	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 0 {
		t.Fatalf("got %d error series, want 0", got)
	}

	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("got %v unique violations, want 1", got)
	}
}

func TestAccountsCounters(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveLogin(true)
	p.ObserveLogin(false)
	p.ObserveLogin(false)
	p.ObserveTokenIssue(true)
	p.ObserveTokenCache("hit")

	if got := testutil.ToFloat64(p.LoginResults.WithLabelValues("failed")); got != 2 {
		t.Fatalf("got %v failed logins, want 2", got)
	}
	if got := testutil.ToFloat64(p.TokenIssues.WithLabelValues("created")); got != 1 {
		t.Fatalf("got %v created tokens, want 1", got)
	}

	var nilProm *Prom
	nilProm.ObserveLogin(true)
	nilProm.ObserveTokenIssue(false)
	nilProm.ObserveTokenCache("miss")
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("missing trace_id: %v", rec)
	}
	if rec["span_id"] == nil {
		t.Fatalf("missing span_id: %v", rec)
	}
}

func TestLogger_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	log.InfoContext(WithRequestID(context.Background(), "req-7"), "hello")
	log.InfoContext(context.Background(), "plain")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %s", len(lines), buf.String())
	}

	if !bytes.Contains(lines[0], []byte(`"request_id":"req-7"`)) {
		t.Fatalf("missing request_id: %s", lines[0])
	}
	if bytes.Contains(lines[1], []byte("request_id")) {
		t.Fatalf("unexpected request_id: %s", lines[1])
	}
}
