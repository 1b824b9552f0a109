package optimizer

import (
	"math"

	"github.com/gomlx/go-ner/config"
	"k8s.io/klog/v2"
)

// Param is a model parameter with its gradient, as seen by hooks.
// Params with a nil Grad are skipped.
type Param struct {
	Name string
	Data []float32
	Grad []float32
}

// Hook modifies gradients before an optimizer update.
type Hook interface {
	Name() string
	Call(params []*Param)
}

// WeightDecay adds Rate * param to each gradient (L2 regularization).
type WeightDecay struct {
	Rate float64
}

func (h WeightDecay) Name() string { return "WeightDecay" }

func (h WeightDecay) Call(params []*Param) {
	rate := float32(h.Rate)
	for _, p := range params {
		if p.Grad == nil {
			continue
		}
		for ii := range p.Grad {
			p.Grad[ii] += rate * p.Data[ii]
		}
	}
}

// GradientClipping rescales all gradients so that their global L2 norm is at most Threshold.
type GradientClipping struct {
	Threshold float64
}

func (h GradientClipping) Name() string { return "GradientClipping" }

func (h GradientClipping) Call(params []*Param) {
	var sumSquares float64
	for _, p := range params {
		for _, g := range p.Grad {
			sumSquares += float64(g) * float64(g)
		}
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return
	}
	rate := h.Threshold / norm
	if rate >= 1 {
		return
	}
	for _, p := range params {
		for ii := range p.Grad {
			p.Grad[ii] = float32(float64(p.Grad[ii]) * rate)
		}
	}
}

// Compile time assert that hooks implement the Hook interface.
var (
	_ Hook = WeightDecay{}
	_ Hook = GradientClipping{}
)

// AddHooks attaches the hooks configured in p to opt, and returns opt:
// WeightDecay if "weight_decay" is set and non-zero, then GradientClipping if "gradient_clipping"
// is set and non-zero.
//
// Non-numeric values fail with config.ErrConfig.
func AddHooks(opt Optimizer, p config.Params) (Optimizer, error) {
	if p.Has("weight_decay") {
		rate, err := p.MustFloat("weight_decay")
		if err != nil {
			return nil, err
		}
		if rate != 0 {
			klog.V(1).Infof("set weight decay (%g)", rate)
			opt.AddHook(WeightDecay{Rate: rate})
		}
	}
	if p.Has("gradient_clipping") {
		threshold, err := p.MustFloat("gradient_clipping")
		if err != nil {
			return nil, err
		}
		if threshold != 0 {
			klog.V(1).Infof("clip gradient (%g)", threshold)
			opt.AddHook(GradientClipping{Threshold: threshold})
		}
	}
	return opt, nil
}
