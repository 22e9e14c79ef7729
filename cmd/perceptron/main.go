// Package main provides the perceptron command-line tool.
package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/born-ml/perceptron/internal/serialization"
)

const usage = `Usage: perceptron [klog flags] <command> [flags]

Commands:
  version    Show version
  train      Train the reference MLP on a synthetic regression task
  inspect    Print the header and tensors of a .born checkpoint

Run 'perceptron <command> -help' for the flags of a command.
`

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Printf("perceptron %s (.born format v%d)\n", serialization.Version, serialization.FormatVersion)
	case "train":
		err = runTrain(args[1:], os.Stdout)
	case "inspect":
		err = runInspect(args[1:], os.Stdout)
	default:
		klog.Errorf("Unknown command %q. See 'perceptron -help'.", args[0])
		os.Exit(2)
	}
	klog.Flush()
	if err != nil {
		klog.Exitf("%s: %v", args[0], err)
	}
}
