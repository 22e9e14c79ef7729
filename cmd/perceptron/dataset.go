package main

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/initializer"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/tensor"
)

// parseFeatures parses "input,hidden,output[,layers]". Three values mean one hidden layer.
func parseFeatures(s string) (nn.ModelFeatures, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return nn.ModelFeatures{}, errors.Errorf("features %q: want input,hidden,output[,layers]", s)
	}
	dims := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nn.ModelFeatures{}, errors.Wrapf(err, "features %q", s)
		}
		dims[i] = v
	}
	f := nn.Shallow(dims[0], dims[1], dims[2])
	if len(dims) == 4 {
		f = f.WithLayers(dims[3])
	}
	return f, f.Validate()
}

// syntheticDataset draws n samples uniformly from [0, 1)^input with targets
//
//	y_j = (1 + sin(Σ_k x_k·(j+1)/(k+1))) / 2
//
// so every target lies in [0, 1] like the Sigmoid output.
func syntheticDataset[T tensor.Float](f nn.ModelFeatures, n int, seed uint64) (x, y *tensor.Tensor[T], err error) {
	if n <= 0 {
		return nil, nil, errors.Errorf("samples must be positive, got %d", n)
	}
	rng := initializer.NewRNG(seed)
	xs := make([]T, n*f.Input)
	ys := make([]T, n*f.Output)
	for i := range n {
		row := xs[i*f.Input : (i+1)*f.Input]
		for k := range row {
			row[k] = T(rng.Float64())
		}
		for j := range f.Output {
			var s float64
			for k, v := range row {
				s += float64(v) * float64(j+1) / float64(k+1)
			}
			ys[i*f.Output+j] = T((1 + math.Sin(s)) / 2)
		}
	}
	if x, err = tensor.FromSlice(xs, tensor.Shape{n, f.Input}); err != nil {
		return nil, nil, err
	}
	if y, err = tensor.FromSlice(ys, tensor.Shape{n, f.Output}); err != nil {
		return nil, nil, err
	}
	return x, y, nil
}
