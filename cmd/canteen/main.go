package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/serve"
	"github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/subcmd"
	tele_cli "github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/tele"
	till_cli "github.com/MatheusdoNAm/AutoAtendimento/cmd/canteen/till"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/state"
	state_new "github.com/MatheusdoNAm/AutoAtendimento/internal/state/new"
	"github.com/MatheusdoNAm/AutoAtendimento/internal/tele"
	"github.com/MatheusdoNAm/AutoAtendimento/log2"
	"github.com/juju/errors"
)

var log = log2.NewStderr(log2.LDebug)

var BuildVersion string = "unknown" // set by ldflags -X

var modules = []subcmd.Mod{
	serve.Mod,
	till_cli.Mod,
	tele_cli.Mod,
}

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "canteen.hcl", "")
	flagEnv := cmdline.String("env", ".env", "optional dotenv file, CANTEEN_* variables")
	flagVersion := cmdline.Bool("version", false, "print build version and exit")
	cmdline.Usage = func() {
		fmt.Fprintf(cmdline.Output(), "Usage: %s [options] command\n\nCommands:\n", os.Args[0])
		for _, m := range modules {
			fmt.Fprintf(cmdline.Output(), "  %-8s %s\n", m.Name, m.Usage)
		}
		fmt.Fprintf(cmdline.Output(), "\nOptions:\n")
		cmdline.PrintDefaults()
	}
	_ = cmdline.Parse(os.Args[1:])

	if *flagVersion {
		fmt.Printf("canteen %s\n", BuildVersion)
		return
	}

	mod, err := subcmd.Parse(cmdline.Arg(0), modules)
	if err != nil {
		log.Error(err)
		cmdline.Usage()
		os.Exit(1)
	}

	log.SetFlags(log2.LInteractiveFlags)
	if subcmd.SdNotify("start") {
		// under systemd assume journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	}
	log.Debugf("canteen version=%s starting %s", BuildVersion, mod.Name)

	ctx, g := state_new.NewContext(log, tele.New())
	g.BuildVersion = BuildVersion

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	if err := config.ApplyEnv(log, *flagEnv); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	if err := mod.Main(ctx, config); err != nil {
		g.Fatal(err)
	}
}
