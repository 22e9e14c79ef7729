// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the n-dimensional float tensors used by the perceptron.
//
// # Overview
//
// Tensors are generic over float32 and float64 and carry one of four storage
// classes:
//   - Owned: the tensor owns its buffer
//   - View / ViewMut: read-only or writable windows into another tensor
//   - Shared: a reference-counted handle that is copied on first write
//
// # Basic Usage
//
//	import "github.com/born-ml/perceptron/tensor"
//
//	func main() {
//	    w := tensor.Ones[float64](tensor.Shape{3, 2})
//	    x := tensor.Vector(1.0, 2.0)
//	    y, err := w.Dot(x) // [3, 3, 3]
//	    if err != nil {
//	        panic(err)
//	    }
//	    fmt.Println(y.Normalize(tensor.Epsilon[float64]()))
//	}
//
// Shape errors are returned, never panicked, by operations whose operands
// come from the caller: ErrShapeMismatch and ErrRankMismatch can be matched
// with errors.Is.
package tensor
