package tonal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/viterin/vek/vek32"
)

// Classifier dimensions: 12 chroma bins plus centroid, zero-crossing rate and
// RMS in; 12 major then 12 minor keys out.
const (
	ClassifierInputs  = 15
	ClassifierHidden  = 64
	ClassifierOutputs = 24
)

// ErrModelUnavailable is returned when the key classifier could not be
// loaded. The hybrid estimator then keeps the profile-based result.
var ErrModelUnavailable = errors.New("key classifier unavailable")

// KeyClassifier is a one-hidden-layer network over chroma and auxiliary
// features. Weights are row-major per input: Encoder[i] holds the 64 weights
// fed by input i, Classifier[h] the 24 weights fed by hidden unit h.
type KeyClassifier struct {
	Encoder        [][]float32 `json:"encoder"`
	EncoderBias    []float32   `json:"encoder_bias"`
	Classifier     [][]float32 `json:"classifier"`
	ClassifierBias []float32   `json:"classifier_bias"`
}

// KeyPrediction is the classifier's pick.
type KeyPrediction struct {
	Key         string  `json:"key"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`

	Winner Key `json:"-"`
}

// DefaultKeyClassifier builds the deterministic built-in weights: chroma
// inputs follow cosine and second-harmonic patterns around the pitch circle,
// auxiliary inputs a gentle tanh ramp, and outputs are arranged on the
// circle of fifths with minor keys damped. Diatonic roots get a small prior.
func DefaultKeyClassifier() *KeyClassifier {
	const pi = 3.14159

	kc := &KeyClassifier{
		Encoder:        make([][]float32, ClassifierInputs),
		EncoderBias:    make([]float32, ClassifierHidden),
		Classifier:     make([][]float32, ClassifierHidden),
		ClassifierBias: make([]float32, ClassifierOutputs),
	}

	for i := 0; i < ClassifierInputs; i++ {
		row := make([]float32, ClassifierHidden)
		for j := range row {
			if i < 12 {
				pitch := math.Cos(float64(i)*2*pi/12 + float64(j)*0.1)
				harmonic := math.Sin(float64(i)*2*pi*2/12 + float64(j)*0.05)
				row[j] = float32((pitch + harmonic*0.3) * 0.4)
			} else {
				row[j] = float32(math.Tanh(float64(i-12)*0.5+float64(j)*0.02) * 0.2)
			}
		}
		kc.Encoder[i] = row
	}

	for h := 0; h < ClassifierHidden; h++ {
		row := make([]float32, ClassifierOutputs)
		for j := range row {
			fifths := float64((j % 12 * 7) % 12)
			tonal := math.Cos(fifths*2*pi/12 + float64(h)*0.1)
			mode := 1.0
			if j >= 12 {
				mode = 0.7
			}
			row[j] = float32(tonal * mode * 0.3)
		}
		kc.Classifier[h] = row
	}

	for _, root := range []int{0, 2, 4, 5, 7, 9, 11} {
		kc.ClassifierBias[root] += 0.1
		kc.ClassifierBias[root+12] += 0.05
	}
	return kc
}

// LoadKeyClassifier decodes a JSON weight blob and checks its shape.
func LoadKeyClassifier(r io.Reader) (*KeyClassifier, error) {
	var kc KeyClassifier
	if err := json.NewDecoder(r).Decode(&kc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrModelUnavailable, err)
	}
	if err := kc.Validate(); err != nil {
		return nil, err
	}
	return &kc, nil
}

// LoadKeyClassifierFile opens path and calls LoadKeyClassifier.
func LoadKeyClassifierFile(path string) (*KeyClassifier, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer f.Close()
	return LoadKeyClassifier(f)
}

// Validate checks every layer has the expected dimensions and finite values.
func (kc *KeyClassifier) Validate() error {
	check := func(name string, m [][]float32, rows, cols int) error {
		if len(m) != rows {
			return fmt.Errorf("%w: %s has %d rows, want %d", ErrModelUnavailable, name, len(m), rows)
		}
		for i, row := range m {
			if len(row) != cols {
				return fmt.Errorf("%w: %s row %d has %d columns, want %d", ErrModelUnavailable, name, i, len(row), cols)
			}
			for _, v := range row {
				if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
					return fmt.Errorf("%w: %s row %d is not finite", ErrModelUnavailable, name, i)
				}
			}
		}
		return nil
	}

	if err := check("encoder", kc.Encoder, ClassifierInputs, ClassifierHidden); err != nil {
		return err
	}
	if err := check("encoder_bias", [][]float32{kc.EncoderBias}, 1, ClassifierHidden); err != nil {
		return err
	}
	if err := check("classifier", kc.Classifier, ClassifierHidden, ClassifierOutputs); err != nil {
		return err
	}
	return check("classifier_bias", [][]float32{kc.ClassifierBias}, 1, ClassifierOutputs)
}

// Predict runs the forward pass. Confidence is the winning probability
// scaled by 1.5 and capped at 0.95.
func (kc *KeyClassifier) Predict(features []float32) (KeyPrediction, error) {
	if len(features) != ClassifierInputs {
		return KeyPrediction{}, fmt.Errorf("expected %d features, got %d", ClassifierInputs, len(features))
	}
	if len(kc.Encoder) != ClassifierInputs || len(kc.EncoderBias) != ClassifierHidden ||
		len(kc.Classifier) != ClassifierHidden || len(kc.ClassifierBias) != ClassifierOutputs {
		return KeyPrediction{}, fmt.Errorf("%w: malformed weights", ErrModelUnavailable)
	}

	tmp := make([]float32, ClassifierHidden)
	hidden := vek32.Zeros(ClassifierHidden)
	for i, x := range features {
		vek32.MulNumber_Into(tmp, kc.Encoder[i], x)
		vek32.Add_Inplace(hidden, tmp)
	}
	vek32.Add_Inplace(hidden, kc.EncoderBias)
	for j, v := range hidden {
		if v < 0 {
			hidden[j] = 0
		}
	}

	tmp = make([]float32, ClassifierOutputs)
	logits := vek32.Zeros(ClassifierOutputs)
	for h, v := range hidden {
		vek32.MulNumber_Into(tmp, kc.Classifier[h], v)
		vek32.Add_Inplace(logits, tmp)
	}
	vek32.Add_Inplace(logits, kc.ClassifierBias)

	probs := softmax(logits)
	best := 0
	for j, p := range probs {
		if p > probs[best] {
			best = j
		}
	}

	k := KeyFromIndex(best)
	return KeyPrediction{
		Key:         k.Name(),
		Probability: probs[best],
		Confidence:  min(probs[best]*1.5, 0.95),
		Winner:      k,
	}, nil
}

func softmax(logits []float32) []float64 {
	maxLogit := float64(vek32.Max(logits))
	out := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		out[i] = math.Exp(float64(l) - maxLogit)
		sum += out[i]
	}
	if sum <= 0 || math.IsNaN(sum) {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
