package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/born-ml/grad/internal/autograd"
	"github.com/born-ml/grad/internal/engine"
	"github.com/born-ml/grad/internal/snapshot"
	"github.com/born-ml/grad/internal/tensor"
)

type demoOptions struct {
	steps int
	lr    float64
	save  string
}

func newDemoCmd(a *app) *cobra.Command {
	opts := demoOptions{}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Differentiate a ReLU and, where matmul is available, fit a linear model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := engine.Open(a.cfg)
			if err != nil {
				return err
			}
			defer e.Close()
			return runDemo(context.Background(), cmd.OutOrStdout(), e, opts)
		},
	}
	cmd.Flags().IntVar(&opts.steps, "steps", 20, "gradient descent steps for the linear fit")
	cmd.Flags().Float64Var(&opts.lr, "lr", 0.05, "learning rate")
	cmd.Flags().StringVar(&opts.save, "save", "", "write a CBOR snapshot of the parameters to this file")
	return cmd
}

func runDemo(ctx context.Context, out io.Writer, e *engine.Engine, opts demoOptions) error {
	g := e.NewGraph()
	defer g.Release()

	x, err := g.FromFloat32([]float32{-1, 2, -3, 4}, tensor.Shape{4}, true, "x")
	if err != nil {
		return err
	}
	y, err := x.ReLU()
	if err != nil {
		return err
	}
	z, err := y.Add(1.0)
	if err != nil {
		return err
	}
	z.SetName("z")
	if err := z.BackwardContext(ctx); err != nil {
		return err
	}
	if err := printTensors(out, x, z); err != nil {
		return err
	}
	keep := []*autograd.Tensor{x}

	if _, ok := e.Registry().Lookup("matmul"); ok {
		w, err := fitLinear(ctx, out, g, opts)
		if err != nil {
			return err
		}
		keep = append(keep, w)
	} else {
		log.Info().Str("backend", e.Backend().Name()).Msg("matmul not available, skipping linear fit")
	}

	if opts.save == "" {
		return nil
	}
	snap, err := snapshot.Capture(e.Backend().Name(), keep...)
	if err != nil {
		return err
	}
	f, err := os.Create(opts.save)
	if err != nil {
		return err
	}
	if err := snapshot.Encode(f, snap); err != nil {
		f.Close()
		return err
	}
	log.Info().Str("file", opts.save).Int("tensors", len(keep)).Msg("snapshot written")
	return f.Close()
}

// fitLinear fits w in inputs@w = targets by gradient descent on the summed
// squared error and returns w.
func fitLinear(ctx context.Context, out io.Writer, g *autograd.Graph, opts demoOptions) (*autograd.Tensor, error) {
	inputs, err := g.FromFloat32([]float32{1, 0, 0, 1, 1, 1, 2, 1}, tensor.Shape{4, 2}, false, "inputs")
	if err != nil {
		return nil, err
	}
	targets, err := g.FromFloat32([]float32{2, -1, 1, 3}, tensor.Shape{4, 1}, false, "targets")
	if err != nil {
		return nil, err
	}
	w, err := g.FromFloat32([]float32{0, 0}, tensor.Shape{2, 1}, true, "w")
	if err != nil {
		return nil, err
	}

	mark := g.Mark()
	for step := 0; step < opts.steps; step++ {
		loss, err := squaredError(inputs, w, targets)
		if err != nil {
			return nil, err
		}
		if err := w.ZeroGrad(); err != nil {
			return nil, err
		}
		if err := loss.BackwardContext(ctx); err != nil {
			return nil, err
		}
		lv, err := loss.Value()
		if err != nil {
			return nil, err
		}
		if err := sgdStep(w, opts.lr); err != nil {
			return nil, err
		}
		log.Debug().Int("step", step).Float64("loss", lv.Float64s()[0]).Msg("linear fit")
		if step == opts.steps-1 {
			fmt.Fprintf(out, "loss after %d steps: %.6f\n", opts.steps, lv.Float64s()[0])
		}
		g.Rewind(mark)
	}
	if err := printTensors(out, w); err != nil {
		return nil, err
	}
	return w, nil
}

func squaredError(inputs, w, targets *autograd.Tensor) (*autograd.Tensor, error) {
	pred, err := inputs.MatMul(w)
	if err != nil {
		return nil, err
	}
	diff, err := pred.Sub(targets)
	if err != nil {
		return nil, err
	}
	sq, err := diff.Pow(2)
	if err != nil {
		return nil, err
	}
	return sq.Sum()
}

// sgdStep applies w -= lr * dL/dw outside the recorded graph.
func sgdStep(w *autograd.Tensor, lr float64) error {
	v, err := w.Value()
	if err != nil {
		return err
	}
	gr, err := w.Grad()
	if err != nil {
		return err
	}
	vs, gs := v.AsFloat32(), gr.AsFloat32()
	next := make([]float32, len(vs))
	for i := range vs {
		next[i] = vs[i] - float32(lr)*gs[i]
	}
	a, err := tensor.ArrayFromFloat32(next, w.Shape())
	if err != nil {
		return err
	}
	return w.AssignArray(a)
}

func printTensors(out io.Writer, ts ...*autograd.Tensor) error {
	for _, t := range ts {
		v, err := t.Value()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %v\n", t.Name(), v.Float64s())
		if !t.RequiresGrad() {
			continue
		}
		gr, err := t.Grad()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "d%s = %v\n", t.Name(), gr.Float64s())
	}
	return nil
}
