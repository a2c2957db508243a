// Package models implements the point and quantile regression estimators
// used for final-value prediction, and the factory that builds the
// (upper, mid, lower) model triple for a training call.
//
// Every estimator satisfies Regressor. Point families (lin, ridge, gbdt)
// fit a conditional mean and derive their quantile behavior from an
// empirical residual shift; quantile families (quant_lin, quant_ridge,
// quant_gbdt) minimize pinball loss directly. The quant_lin and
// quant_ridge triples are co-trained: the central fit seeds the upper and
// lower solves.
package models

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Quantile levels of the model triple.
const (
	UpperQuant = 0.9
	MidQuant   = 0.5
	LowerQuant = 0.1
)

// ridgeLambda is the L2 penalty used by the ridge families.
const ridgeLambda = 1.0

// Regressor is the fit/predict contract shared by all estimators.
type Regressor interface {
	Fit(X *mat.Dense, y []float64) error
	Predict(x []float64) float64
}

// Kind enumerates the supported model families.
type Kind int

const (
	KindLinear Kind = iota
	KindRidge
	KindGBT
	KindQuantLinear
	KindQuantRidge
	KindQuantGBT
)

var (
	// ErrUnknownKind reports an unrecognized model-type tag.
	ErrUnknownKind = errors.New("models: unknown model kind")
	// ErrEmptyTrainingSet reports a training call with no samples.
	ErrEmptyTrainingSet = errors.New("models: empty training set")
)

var kindTags = map[string]Kind{
	"lin":         KindLinear,
	"ridge":       KindRidge,
	"gbdt":        KindGBT,
	"quant_lin":   KindQuantLinear,
	"quant_ridge": KindQuantRidge,
	"quant_gbdt":  KindQuantGBT,
}

// ParseKind resolves a model-type tag. Unrecognized tags fail fast.
func ParseKind(tag string) (Kind, error) {
	k, ok := kindTags[tag]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, tag)
	}
	return k, nil
}

func (k Kind) String() string {
	for tag, kind := range kindTags {
		if kind == k {
			return tag
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// cotrained reports whether the triple for this kind is fit jointly.
func (k Kind) cotrained() bool {
	return k == KindQuantLinear || k == KindQuantRidge
}

// newTriple constructs the three aligned estimators for a kind.
func newTriple(k Kind) (upper, mid, lower Regressor, err error) {
	switch k {
	case KindLinear:
		return newPointLinear(UpperQuant, 0), newPointLinear(MidQuant, 0), newPointLinear(LowerQuant, 0), nil
	case KindRidge:
		return newPointLinear(UpperQuant, ridgeLambda), newPointLinear(MidQuant, ridgeLambda), newPointLinear(LowerQuant, ridgeLambda), nil
	case KindGBT:
		return newPointGBT(UpperQuant), newPointGBT(MidQuant), newPointGBT(LowerQuant), nil
	case KindQuantLinear:
		return newQuantLinear(UpperQuant, 0), newQuantLinear(MidQuant, 0), newQuantLinear(LowerQuant, 0), nil
	case KindQuantRidge:
		return newQuantLinear(UpperQuant, ridgeLambda), newQuantLinear(MidQuant, ridgeLambda), newQuantLinear(LowerQuant, ridgeLambda), nil
	case KindQuantGBT:
		return newQuantGBT(UpperQuant), newQuantGBT(MidQuant), newQuantGBT(LowerQuant), nil
	default:
		return nil, nil, nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
}

// Train fits a model triple on (X, y). For co-trained kinds the three
// estimators are fit jointly; otherwise each is fit independently on the
// same data. Quantile crossing (lower above upper for some inputs) is an
// accepted artifact of independently fit bands and is not corrected.
func Train(X *mat.Dense, y []float64, kind Kind) (upper, mid, lower Regressor, err error) {
	if X == nil || len(y) == 0 {
		return nil, nil, nil, ErrEmptyTrainingSet
	}
	if r, _ := X.Dims(); r != len(y) {
		return nil, nil, nil, fmt.Errorf("models: X has %d rows, y has %d values", r, len(y))
	}

	upper, mid, lower, err = newTriple(kind)
	if err != nil {
		return nil, nil, nil, err
	}

	if kind.cotrained() {
		if err := cotrainFit(upper.(*quantLinear), mid.(*quantLinear), lower.(*quantLinear), X, y); err != nil {
			return nil, nil, nil, fmt.Errorf("co-train %s: %w", kind, err)
		}
		return upper, mid, lower, nil
	}

	for _, m := range []Regressor{upper, mid, lower} {
		if err := m.Fit(X, y); err != nil {
			return nil, nil, nil, fmt.Errorf("fit %s: %w", kind, err)
		}
	}
	return upper, mid, lower, nil
}
