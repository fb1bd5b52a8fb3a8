package engine

import (
	"context"
	"fmt"

	"github.com/tillrd/lufalyze/logging"
)

// Request is a unit of work for a Worker.
type Request interface {
	RequestID() string
}

// AnalyzeLoudnessRequest asks for loudness, technical and stereo analysis.
type AnalyzeLoudnessRequest struct {
	ID  string
	PCM *PCMBuffer
}

func (r AnalyzeLoudnessRequest) RequestID() string { return r.ID }

// AnalyzeMusicRequest asks for key estimation.
type AnalyzeMusicRequest struct {
	ID  string
	PCM *PCMBuffer
}

func (r AnalyzeMusicRequest) RequestID() string { return r.ID }

// AnalyzeRequest asks for the full merged report.
type AnalyzeRequest struct {
	ID    string
	PCM   *PCMBuffer
	Tempo *float64
}

func (r AnalyzeRequest) RequestID() string { return r.ID }

// Response is sent by a Worker for every request: zero or more
// ProgressMessage values followed by exactly one ResultMessage or
// ErrorMessage.
type Response interface {
	ResponseID() string
}

// ProgressMessage reports a stage transition. Percent is in [0, 100].
type ProgressMessage struct {
	ID      string  `json:"id"`
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
}

// ResultMessage carries a finished result. Result is *LoudnessAnalysis,
// *analyzers.MusicReport or *Report depending on the request.
type ResultMessage struct {
	ID     string `json:"id"`
	Result any    `json:"result"`
}

// ErrorMessage reports a failed request.
type ErrorMessage struct {
	ID  string `json:"id"`
	Err error  `json:"-"`
	// Message is Err.Error(), kept for hosts that serialise responses.
	Message string `json:"error"`
}

func (m ProgressMessage) ResponseID() string { return m.ID }
func (m ResultMessage) ResponseID() string   { return m.ID }
func (m ErrorMessage) ResponseID() string    { return m.ID }

// Worker serves requests one at a time from a channel, the way a browser
// host talks to an analysis worker.
type Worker struct {
	engine *Engine
	logger logging.Logger
}

// NewWorker wraps an engine.
func NewWorker(e *Engine) *Worker {
	return &Worker{
		engine: e,
		logger: logging.WithFields(logging.Fields{"component": "analysis_worker"}),
	}
}

// Run reads requests until the channel closes or ctx is done. Requests are
// handled sequentially. Run does not close responses.
func (w *Worker) Run(ctx context.Context, requests <-chan Request, responses chan<- Response) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req, ok := <-requests:
			if !ok {
				return nil
			}
			if err := w.handle(ctx, req, responses); err != nil {
				return err
			}
		}
	}
}

// handle returns an error only when ctx ends; analysis failures become
// ErrorMessage responses.
func (w *Worker) handle(ctx context.Context, req Request, responses chan<- Response) error {
	id := req.RequestID()
	logger := w.logger.WithFields(logging.Fields{"request_id": id})

	send := func(r Response) error {
		select {
		case responses <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	progress := func(stage string, pct float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return send(ProgressMessage{ID: id, Stage: stage, Percent: pct})
	}

	var (
		result any
		err    error
	)
	switch r := req.(type) {
	case AnalyzeLoudnessRequest:
		if err := progress("loudness", 0); err != nil {
			return err
		}
		result, err = w.engine.AnalyzeLoudness(r.PCM)
	case AnalyzeMusicRequest:
		if err := progress("music", 0); err != nil {
			return err
		}
		result, err = w.engine.AnalyzeMusic(r.PCM)
	case AnalyzeRequest:
		if err := progress("analysis", 0); err != nil {
			return err
		}
		result, err = w.engine.Analyze(r.PCM, r.Tempo)
	default:
		err = fmt.Errorf("unsupported request type %T", req)
	}

	if err != nil {
		logger.Error(err, "Request failed")
		return send(ErrorMessage{ID: id, Err: err, Message: err.Error()})
	}
	if err := progress("done", 100); err != nil {
		return err
	}
	return send(ResultMessage{ID: id, Result: result})
}
