package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/perceptron/internal/config"
	"github.com/born-ml/perceptron/internal/model"
	"github.com/born-ml/perceptron/internal/nn"
	"github.com/born-ml/perceptron/internal/serialization"
	"github.com/born-ml/perceptron/internal/tensor"
)

type trainOptions struct {
	cfg       *config.Config
	features  nn.ModelFeatures
	samples   int
	out       string
	dtype     serialization.DType
	precision string
	quiet     bool
}

func runTrain(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	var (
		flagConfig    = fs.String("config", "", "YAML training configuration. Flags below override it.")
		flagFeatures  = fs.String("features", "4,8,2", "Layer widths as input,hidden,output[,layers].")
		flagSamples   = fs.Int("samples", 256, "Number of synthetic samples.")
		flagEpochs    = fs.Int("epochs", 0, "Number of epochs (0 keeps the config value).")
		flagBatch     = fs.Int("batch", 0, "Mini-batch size in rows (0 keeps the config value).")
		flagSeed      = fs.Uint64("seed", 0, "Seed for initialisation and data (0 keeps the config value).")
		flagLR        = fs.Float64("lr", 0, "Learning rate (0 keeps the config value).")
		flagOptimizer = fs.String("optimizer", "", "Optimizer: sgd, adam or adamw. Empty uses plain backward updates.")
		flagInit      = fs.String("init", "", "Initialisation: glorot_uniform, glorot_normal, lecun_normal, normal, uniform, zeros or ones.")
		flagOut       = fs.String("out", "", "Write the trained model to this .born file.")
		flagDType     = fs.String("dtype", "", "Checkpoint element type: float16, float32 or float64 (default: -precision).")
		flagPrecision = fs.String("precision", "float32", "Training precision: float32 or float64.")
		flagQuiet     = fs.Bool("quiet", false, "Disable the progress bar.")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.ApplyOverrides(config.Overrides{
		BatchSize:    *flagBatch,
		Epochs:       *flagEpochs,
		Seed:         *flagSeed,
		Init:         *flagInit,
		Optimizer:    *flagOptimizer,
		LearningRate: *flagLR,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	f, err := parseFeatures(*flagFeatures)
	if err != nil {
		return err
	}
	opts := trainOptions{
		cfg:       cfg,
		features:  f,
		samples:   *flagSamples,
		out:       *flagOut,
		precision: *flagPrecision,
		quiet:     *flagQuiet,
	}
	if *flagDType != "" {
		if opts.dtype, err = serialization.ParseDType(*flagDType); err != nil {
			return err
		}
	}

	switch *flagPrecision {
	case "float32":
		return train[float32](opts, w)
	case "float64":
		return train[float64](opts, w)
	}
	return errors.Errorf("unknown precision %q", *flagPrecision)
}

func train[T tensor.Float](opts trainOptions, w io.Writer) error {
	cfg := opts.cfg
	m, err := model.New[T](opts.features, cfg)
	if err != nil {
		return err
	}
	x, y, err := syntheticDataset[T](opts.features, opts.samples, cfg.Seed)
	if err != nil {
		return err
	}
	klog.V(1).Infof("train: %s, %d samples, %d epochs of batch %d", opts.features, opts.samples, cfg.Epochs, cfg.BatchSize)

	var bar *progressbar.ProgressBar
	if !opts.quiet {
		bar = progressbar.NewOptions(cfg.Epochs,
			progressbar.OptionSetDescription(fmt.Sprintf("Training (%d epochs): ", cfg.Epochs)),
			progressbar.OptionUseANSICodes(true),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("epochs"),
			progressbar.OptionSetTheme(progressbar.ThemeUnicode),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	start := time.Now()
	losses, err := m.Fit(x, y, func(epoch int, loss T) {
		klog.V(1).Infof("epoch %d: loss %.6g", epoch, float64(loss))
		if bar != nil {
			bar.Describe(fmt.Sprintf("Training [loss=%.4g]: ", float64(loss)))
			_ = bar.Add(1)
		}
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	mse, err := m.Evaluate(x, y)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, titleStyle.Render("Training"))
	table := newPlainTable(lipgloss.Right, lipgloss.Left)
	table.Row("run", m.ID().String())
	table.Row("features", opts.features.String())
	table.Row("# parameters", humanize.Comma(int64(m.NumParams())))
	table.Row("# samples", humanize.Comma(int64(opts.samples)))
	table.Row("epochs", strconv.Itoa(cfg.Epochs))
	table.Row("batch size", strconv.Itoa(cfg.BatchSize))
	table.Row("optimizer", optimizerName(m))
	table.Row("learning rate", strconv.FormatFloat(cfg.LearningRate(), 'g', -1, 64))
	if len(losses) > 0 {
		table.Row("first loss", fmt.Sprintf("%.6g", float64(losses[0])))
		table.Row("last loss", fmt.Sprintf("%.6g", float64(losses[len(losses)-1])))
	}
	table.Row("eval mse", fmt.Sprintf("%.6g", float64(mse)))
	table.Row("elapsed", elapsed.Round(time.Millisecond).String())
	fmt.Fprintln(w, table.Render())

	if opts.out == "" {
		return nil
	}
	save := model.SaveOptions{
		DType: opts.dtype,
		Metadata: map[string]string{
			"dataset":   "synthetic",
			"samples":   strconv.Itoa(opts.samples),
			"precision": opts.precision,
		},
	}
	if len(losses) > 0 {
		last := float64(losses[len(losses)-1])
		save.Loss = &last
	}
	if err := m.Save(opts.out, save); err != nil {
		return err
	}
	if info, err := os.Stat(opts.out); err == nil {
		fmt.Fprintf(w, "Saved %s (%s)\n", opts.out, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func optimizerName[T tensor.Float](m *model.MLP[T]) string {
	if m.Optimizer() == nil {
		return "backward"
	}
	return m.Optimizer().Name()
}
