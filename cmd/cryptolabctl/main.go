package main

import (
	"flag"
	"fmt"
	"os"
)

const productName = "cryptolab"
const cliBanner = productName + " CLI (cryptolabctl)"

var showVersion = flag.Bool("version", false, "print the version and exit")

func init() {
	defaultUsage := flag.Usage
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		fmt.Fprintln(out, cliBanner)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  encode     encipher text or a file with a known key")
		fmt.Fprintln(out, "  decode     decipher text or a file with a known key")
		fmt.Fprintln(out, "  break      recover plaintext without the key")
		fmt.Fprintln(out, "  pad        generate pad, IV or key material")
		fmt.Fprintln(out, "  clean      normalise text to lowercase letters and spaces")
		fmt.Fprintln(out, "  ops        list registered operations")
		fmt.Fprintln(out, "  pipeline   run a chain of operations")
		fmt.Fprintln(out, "  recipe     save, list, show, run or delete named pipelines")
		fmt.Fprintln(out, "  config     print the resolved configuration")
		fmt.Fprintln(out, "  version    print the version")
		fmt.Fprintln(out)
		if defaultUsage != nil {
			defaultUsage()
		}
	}
}

func main() {
	flag.Parse()
	if *showVersion {
		fmt.Println(versionString())
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	switch args[0] {
	case "encode":
		os.Exit(runEncode(args[1:]))
	case "decode":
		os.Exit(runDecode(args[1:]))
	case "break":
		os.Exit(runBreak(args[1:]))
	case "pad":
		os.Exit(runPad(args[1:]))
	case "clean":
		os.Exit(runClean(args[1:]))
	case "ops":
		os.Exit(runOps(args[1:]))
	case "pipeline":
		os.Exit(runPipeline(args[1:]))
	case "recipe":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "recipe subcommand required")
			os.Exit(2)
		}
		switch args[1] {
		case "save":
			os.Exit(runRecipeSave(args[2:]))
		case "list":
			os.Exit(runRecipeList(args[2:]))
		case "show":
			os.Exit(runRecipeShow(args[2:]))
		case "run":
			os.Exit(runRecipeRun(args[2:]))
		case "delete":
			os.Exit(runRecipeDelete(args[2:]))
		default:
			fmt.Fprintf(os.Stderr, "unknown recipe subcommand: %s\n", args[1])
			os.Exit(2)
		}
	case "config":
		os.Exit(runConfig(args[1:]))
	case "version":
		os.Exit(runVersion(args[1:]))
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		flag.Usage()
		os.Exit(2)
	}
}
