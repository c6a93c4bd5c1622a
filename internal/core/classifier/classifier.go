// Package classifier scores a feature row with the pre-trained BIMBAS
// binary classifier and turns its raw probability output into a label and
// confidence
package classifier

import (
	"math"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ryansgi/rabbit/internal/core/features"
	perr "github.com/ryansgi/rabbit/internal/platform/errors"
)

// Result is the outcome of scoring one feature row
type Result struct {
	Label      string
	Confidence float64
}

// Predictor loads a model once and scores feature rows against it. One
// Predictor is constructed per run and the Orchestrator reuses it for every
// contributor
type Predictor interface {
	Load(path string) error
	Predict(row features.Row) (Result, error)
}

const (
	inputName             = "float_input"
	labelOutputName       = "output_label"
	probabilityOutputName = "output_probability"
)

var featureCount = len(features.Names)

var (
	envOnce sync.Once
	envErr  error
)

// ensureEnvironment initializes the onnxruntime environment exactly once
// per process, regardless of how many predictors are loaded
func ensureEnvironment(sharedLibPath string) error {
	envOnce.Do(func() {
		if sharedLibPath != "" {
			ort.SetSharedLibraryPath(sharedLibPath)
		}
		envErr = ort.InitializeEnvironment()
	})
	return envErr
}

// ONNXPredictor runs inference through a loaded .onnx model. Its input and
// output tensors are shared across calls, so Load, Predict and Close hold a
// mutex and concurrent Predict calls run one at a time
type ONNXPredictor struct {
	sharedLibPath string

	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	labels  *ort.Tensor[int64]
	probs   *ort.Tensor[float32]
}

// NewONNXPredictor returns a predictor with no model loaded yet. sharedLibPath
// points at the onnxruntime shared library; pass "" to use the runtime's
// default search behavior
func NewONNXPredictor(sharedLibPath string) *ONNXPredictor {
	return &ONNXPredictor{sharedLibPath: sharedLibPath}
}

// Load reads the BIMBAS model from path and builds the fixed-shape session
// Predict reuses for every row. The session must expose one 1x38 float
// input and at least two outputs (a class label and a probability tensor);
// Load fails fast if that shape isn't satisfied
func (p *ONNXPredictor) Load(path string) error {
	if err := ensureEnvironment(p.sharedLibPath); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "classifier: initialize onnx runtime")
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(featureCount)))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "classifier: allocate input tensor")
	}
	labels, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		input.Destroy()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "classifier: allocate label tensor")
	}
	probs, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		input.Destroy()
		labels.Destroy()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "classifier: allocate probability tensor")
	}

	session, err := ort.NewAdvancedSession(path,
		[]string{inputName},
		[]string{labelOutputName, probabilityOutputName},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{labels, probs},
		nil)
	if err != nil {
		input.Destroy()
		labels.Destroy()
		probs.Destroy()
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "classifier: load model %s", path)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.session, p.input, p.labels, p.probs = session, input, labels, probs
	return nil
}

// Predict runs inference on row and reads P(bot) from the second element
// of the probability output
func (p *ONNXPredictor) Predict(row features.Row) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return Result{}, perr.New(perr.ErrorCodeUnknown, "classifier: Predict called before Load")
	}

	data := p.input.GetData()
	for i, v := range row.Columns() {
		data[i] = float32(v)
	}

	if err := p.session.Run(); err != nil {
		return Result{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "classifier: run inference")
	}

	probs := p.probs.GetData()
	if len(probs) < 2 {
		return Result{}, perr.Newf(perr.ErrorCodeUnknown,
			"classifier: probability output has %d elements, want 2", len(probs))
	}
	return resultFromProbability(float64(probs[1])), nil
}

// Close releases the session and its tensors. Safe to call on a predictor
// that was never loaded
func (p *ONNXPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil
	}
	p.session.Destroy()
	p.input.Destroy()
	p.labels.Destroy()
	p.probs.Destroy()
	p.session = nil
	return nil
}

// resultFromProbability applies the label/confidence rule shared by every
// Predictor implementation: label is Bot iff P(bot) >= 0.5, and confidence
// is how far P(bot) sits from the undecided midpoint, doubled onto [0,1]
func resultFromProbability(pBot float64) Result {
	label := "Human"
	if pBot >= 0.5 {
		label = "Bot"
	}
	return Result{Label: label, Confidence: round3(2 * math.Abs(pBot-0.5))}
}

func round3(f float64) float64 {
	return float64(int64(f*1000+0.5)) / 1000
}
