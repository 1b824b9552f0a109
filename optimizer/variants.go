package optimizer

// Default hyperparameters, for those not set by the configuration.
const (
	DefaultLR          = 0.01
	DefaultMomentum    = 0.9
	DefaultAdaDeltaRho = 0.95
	DefaultAdaDeltaEps = 1e-6
	DefaultAdamAlpha   = 0.001
	DefaultAdamBeta1   = 0.9
	DefaultAdamBeta2   = 0.999
	DefaultAdamEps     = 1e-8
)

// SGD is the vanilla stochastic gradient descent.
type SGD struct {
	hookList
	LR float64
}

// NewSGD creates an SGD optimizer.
func NewSGD(lr float64) *SGD {
	return &SGD{LR: lr}
}

func (o *SGD) Name() string { return "sgd" }

func (o *SGD) Hyperparameter(h Hyperparameter) (float64, error) {
	if h == LR {
		return o.LR, nil
	}
	return 0, unknownHyperparameter(o, h)
}

func (o *SGD) SetHyperparameter(h Hyperparameter, value float64) error {
	if h == LR {
		o.LR = value
		return nil
	}
	return unknownHyperparameter(o, h)
}

// MomentumSGD is stochastic gradient descent with classical momentum.
type MomentumSGD struct {
	hookList
	LR, Momentum float64
}

// NewMomentumSGD creates a MomentumSGD optimizer with DefaultMomentum.
func NewMomentumSGD(lr float64) *MomentumSGD {
	return &MomentumSGD{LR: lr, Momentum: DefaultMomentum}
}

func (o *MomentumSGD) Name() string { return "momentumsgd" }

func (o *MomentumSGD) Hyperparameter(h Hyperparameter) (float64, error) {
	switch h {
	case LR:
		return o.LR, nil
	case Momentum:
		return o.Momentum, nil
	}
	return 0, unknownHyperparameter(o, h)
}

func (o *MomentumSGD) SetHyperparameter(h Hyperparameter, value float64) error {
	switch h {
	case LR:
		o.LR = value
	case Momentum:
		o.Momentum = value
	default:
		return unknownHyperparameter(o, h)
	}
	return nil
}

// AdaDelta is Zeiler's ADADELTA, which has no learning rate.
type AdaDelta struct {
	hookList
	Rho, Eps float64
}

// NewAdaDelta creates an AdaDelta optimizer with the default rho and eps.
func NewAdaDelta() *AdaDelta {
	return &AdaDelta{Rho: DefaultAdaDeltaRho, Eps: DefaultAdaDeltaEps}
}

func (o *AdaDelta) Name() string { return "adadelta" }

func (o *AdaDelta) Hyperparameter(h Hyperparameter) (float64, error) {
	switch h {
	case Rho:
		return o.Rho, nil
	case Eps:
		return o.Eps, nil
	}
	return 0, unknownHyperparameter(o, h)
}

func (o *AdaDelta) SetHyperparameter(h Hyperparameter, value float64) error {
	switch h {
	case Rho:
		o.Rho = value
	case Eps:
		o.Eps = value
	default:
		return unknownHyperparameter(o, h)
	}
	return nil
}

// Adam is Kingma and Ba's Adam. Its step size is Alpha.
type Adam struct {
	hookList
	Alpha, Beta1, Beta2, Eps float64
}

// NewAdam creates an Adam optimizer with DefaultAdamEps.
func NewAdam(alpha, beta1, beta2 float64) *Adam {
	return &Adam{Alpha: alpha, Beta1: beta1, Beta2: beta2, Eps: DefaultAdamEps}
}

func (o *Adam) Name() string { return "adam" }

func (o *Adam) Hyperparameter(h Hyperparameter) (float64, error) {
	switch h {
	case Alpha:
		return o.Alpha, nil
	case Beta1:
		return o.Beta1, nil
	case Beta2:
		return o.Beta2, nil
	case Eps:
		return o.Eps, nil
	}
	return 0, unknownHyperparameter(o, h)
}

func (o *Adam) SetHyperparameter(h Hyperparameter, value float64) error {
	switch h {
	case Alpha:
		o.Alpha = value
	case Beta1:
		o.Beta1 = value
	case Beta2:
		o.Beta2 = value
	case Eps:
		o.Eps = value
	default:
		return unknownHyperparameter(o, h)
	}
	return nil
}

// Compile time assert that the variants implement the Optimizer interface.
var (
	_ Optimizer = &SGD{}
	_ Optimizer = &MomentumSGD{}
	_ Optimizer = &AdaDelta{}
	_ Optimizer = &Adam{}
)
