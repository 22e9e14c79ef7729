package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/born-ml/perceptron/internal/serialization"
)

func runInspect(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	var (
		flagStats      = fs.Bool("stats", false, "Decode every tensor and report min, max, mean and L2 norm.")
		flagNoChecksum = fs.Bool("skip_checksum", false, "Do not verify the data checksum.")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one checkpoint path")
	}

	r, err := serialization.OpenWithOptions(fs.Arg(0), serialization.ReaderOptions{
		SkipChecksumValidation: *flagNoChecksum,
	})
	if err != nil {
		return err
	}
	report(w, fs.Arg(0), r)
	if *flagStats {
		return reportStats(w, r)
	}
	return nil
}

// report prints the summary, hyperparameter, metadata and tensor tables of r.
func report(w io.Writer, path string, r *serialization.Reader) {
	h := r.Header()

	fmt.Fprintln(w, titleStyle.Render("Summary"))
	table := newPlainTable(lipgloss.Right, lipgloss.Left)
	table.Row("checkpoint", path)
	table.Row("format", fmt.Sprintf("v%d (written by %s)", r.Version(), h.Version))
	table.Row("model", h.ModelType)
	table.Row("run", h.RunID.String())
	table.Row("created", fmt.Sprintf("%s (%s)", h.CreatedAt.Format("2006-01-02 15:04:05 MST"), humanize.Time(h.CreatedAt)))
	if h.Features != nil {
		table.Row("features", h.Features.String())
	}
	if t := h.Training; t != nil {
		table.Row("epochs", strconv.Itoa(t.Epochs))
		table.Row("batch size", strconv.Itoa(t.BatchSize))
		if t.Optimizer != "" {
			table.Row("optimizer", t.Optimizer)
		}
		if t.Init != "" {
			table.Row("init", t.Init)
		}
		if t.Loss != nil {
			table.Row("loss", fmt.Sprintf("%.6g", *t.Loss))
		}
	}
	var numParams, dataBytes int64
	for _, m := range h.Tensors {
		numParams += int64(m.NumElements())
		dataBytes += m.Size
	}
	checksum := r.Checksum()
	table.Row("# tensors", humanize.Comma(int64(len(h.Tensors))))
	table.Row("# parameters", humanize.Comma(numParams))
	table.Row("# bytes", fmt.Sprintf("%s of %s", humanize.Bytes(uint64(dataBytes)), humanize.Bytes(uint64(r.FileSize()))))
	table.Row("sha256", hex.EncodeToString(checksum[:8])+"…")
	fmt.Fprintln(w, table.Render())

	if h.Hyperparameters.Len() > 0 {
		fmt.Fprintln(w, titleStyle.Render("Hyperparameters"))
		table = newPlainTable(lipgloss.Right, lipgloss.Left)
		table.Headers("Name", "Value")
		for k, v := range h.Hyperparameters.All() {
			table.Row(k, strconv.FormatFloat(v, 'g', -1, 64))
		}
		fmt.Fprintln(w, table.Render())
	}

	if len(h.Metadata) > 0 {
		fmt.Fprintln(w, titleStyle.Render("Metadata"))
		table = newPlainTable(lipgloss.Right, lipgloss.Left)
		table.Headers("Key", "Value")
		keys := make([]string, 0, len(h.Metadata))
		for k := range h.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			table.Row(k, h.Metadata[k])
		}
		fmt.Fprintln(w, table.Render())
	}

	fmt.Fprintln(w, titleStyle.Render("Tensors"))
	table = newPlainTable(lipgloss.Left, lipgloss.Left, lipgloss.Left, lipgloss.Right)
	table.Headers("Name", "DType", "Shape", "Size", "Bytes", "Offset")
	for _, m := range h.Tensors {
		table.Row(m.Name, string(m.DType), fmt.Sprint(m.Shape),
			humanize.Comma(int64(m.NumElements())), humanize.Bytes(uint64(m.Size)), humanize.Comma(m.Offset))
	}
	fmt.Fprintln(w, table.Render())
}

// reportStats decodes every tensor of r as float64 and prints its statistics.
func reportStats(w io.Writer, r *serialization.Reader) error {
	entries, err := serialization.ReadAll[float64](r)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, titleStyle.Render("Statistics"))
	table := newPlainTable(lipgloss.Left, lipgloss.Right)
	table.Headers("Name", "Min", "Max", "Mean", "L2 norm", "Finite")
	format := func(v float64) string { return strconv.FormatFloat(v, 'g', 5, 64) }
	for _, e := range entries {
		t := e.Tensor
		table.Row(e.Name, format(t.Min()), format(t.Max()), format(t.Mean()), format(t.L2Norm()),
			strconv.FormatBool(t.AllFinite()))
	}
	fmt.Fprintln(w, table.Render())
	return nil
}
