package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tillrd/lufalyze/engine/analyzers"
)

func collect(t *testing.T, w *Worker, reqs ...Request) []Response {
	t.Helper()
	requests := make(chan Request, len(reqs))
	for _, r := range reqs {
		requests <- r
	}
	close(requests)

	responses := make(chan Response, 16*len(reqs))
	if err := w.Run(context.Background(), requests, responses); err != nil {
		t.Fatal(err)
	}
	close(responses)

	var out []Response
	for r := range responses {
		out = append(out, r)
	}
	return out
}

func TestWorkerRoundTrip(t *testing.T) {
	w := NewWorker(uncalibrated(t, true))
	pcm := interleavedSine(440, 0.3, 44100, 2, 2)

	out := collect(t, w,
		AnalyzeLoudnessRequest{ID: "a", PCM: pcm},
		AnalyzeMusicRequest{ID: "b", PCM: pcm},
	)

	var results []ResultMessage
	for _, r := range out {
		switch m := r.(type) {
		case ResultMessage:
			results = append(results, m)
		case ErrorMessage:
			t.Fatalf("unexpected error for %s: %v", m.ID, m.Err)
		}
	}
	if len(results) != 2 || results[0].ID != "a" || results[1].ID != "b" {
		t.Fatalf("results out of order: %+v", results)
	}
	if _, ok := results[0].Result.(*LoudnessAnalysis); !ok {
		t.Errorf("loudness result is %T", results[0].Result)
	}
	if _, ok := results[1].Result.(*analyzers.MusicReport); !ok {
		t.Errorf("music result is %T", results[1].Result)
	}

	// Each request opens with progress and ends with its result.
	if p, ok := out[0].(ProgressMessage); !ok || p.ID != "a" || p.Percent != 0 {
		t.Errorf("first response: %+v", out[0])
	}
}

func TestWorkerReportsInvalidInput(t *testing.T) {
	w := NewWorker(uncalibrated(t, true))
	out := collect(t, w, AnalyzeRequest{ID: "bad", PCM: NewPCMBuffer([]float32{1}, 44100, 0)})

	last, ok := out[len(out)-1].(ErrorMessage)
	if !ok {
		t.Fatalf("last response: %T", out[len(out)-1])
	}
	if last.ID != "bad" || !errors.Is(last.Err, ErrInvalidInput) || last.Message == "" {
		t.Errorf("error message: %+v", last)
	}
}

func TestWorkerStopsOnCancel(t *testing.T) {
	w := NewWorker(uncalibrated(t, true))
	ctx, cancel := context.WithCancel(context.Background())

	requests := make(chan Request)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, requests, make(chan Response, 1)) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
