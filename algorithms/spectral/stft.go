package spectral

import (
	"fmt"
	"runtime"
	"sync"
)

// Window is implemented by the windowing package types.
type Window interface {
	ApplyInPlace(signal []float64) error
}

// FrameFunc receives the magnitude spectrum (bins 0..windowSize/2) of one
// frame. The slice is reused after the call returns. worker identifies the
// goroutine that produced it, in [0, workers).
type FrameFunc func(worker, frame int, magnitude []float64)

// STFT slides a window over a signal and hands each frame's magnitude
// spectrum to a callback instead of materialising the whole spectrogram.
type STFT struct {
	fft     *FFT
	workers int
}

// NewSTFT creates an STFT that picks its worker count from the workload.
func NewSTFT() *STFT {
	return &STFT{fft: NewFFT()}
}

// NewSTFTWithWorkers fixes the worker count; 1 runs on the calling goroutine.
func NewSTFTWithWorkers(workers int) *STFT {
	return &STFT{fft: NewFFT(), workers: workers}
}

// FrameCount returns how many full windows fit in n samples.
func FrameCount(n, windowSize, hopSize int) int {
	if windowSize <= 0 || hopSize <= 0 || n < windowSize {
		return 0
	}
	return (n-windowSize)/hopSize + 1
}

// Workers reports the number of goroutines Stream will use for numFrames.
func (s *STFT) Workers(numFrames int) int {
	if s.workers > 0 {
		return max(1, min(s.workers, numFrames))
	}
	return s.getOptimalWorkerCount(numFrames)
}

// Stream processes every full frame of signal. Frames are split into
// contiguous ranges, one per worker, so a caller that keeps one accumulator
// per worker and merges them in worker order gets the same result on every
// run. It returns the number of frames processed.
func (s *STFT) Stream(signal []float64, windowSize, hopSize int, window Window, fn FrameFunc) (int, error) {
	if windowSize <= 0 {
		return 0, fmt.Errorf("window size must be positive")
	}
	if hopSize <= 0 {
		return 0, fmt.Errorf("hop size must be positive")
	}

	numFrames := FrameCount(len(signal), windowSize, hopSize)
	if numFrames == 0 {
		return 0, nil
	}

	numWorkers := s.Workers(numFrames)
	per := (numFrames + numWorkers - 1) / numWorkers

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	run := func(worker, from, to int) {
		frameBuffer := make([]float64, windowSize)
		var magnitude []float64

		for frame := from; frame < to; frame++ {
			start := frame * hopSize
			copy(frameBuffer, signal[start:start+windowSize])

			if window != nil {
				if err := window.ApplyInPlace(frameBuffer); err != nil {
					errOnce.Do(func() { firstErr = fmt.Errorf("frame %d: %w", frame, err) })
					return
				}
			}

			magnitude = s.fft.Magnitudes(frameBuffer, magnitude)
			fn(worker, frame, magnitude)
		}
	}

	if numWorkers == 1 {
		run(0, 0, numFrames)
		return numFrames, firstErr
	}

	for w := 0; w < numWorkers; w++ {
		w := w
		from := w * per
		to := min(from+per, numFrames)
		if from >= to {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(w, from, to)
		}()
	}
	wg.Wait()

	return numFrames, firstErr
}

// getOptimalWorkerCount determines the number of workers based on workload
func (s *STFT) getOptimalWorkerCount(numFrames int) int {
	numCPU := runtime.NumCPU()

	// For small workloads, don't over-parallelize
	if numFrames < 100 {
		return max(1, min(numCPU/2, numFrames))
	}

	if numFrames < 1000 {
		return min(numCPU, 8)
	}

	return numCPU
}
