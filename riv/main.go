// Command riv runs the recurring investment workflow.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/autoinvest/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/sirupsen/logrus"
)

func main() {
	// Local .env file can hold SHEET_ID and SHEETS_API_KEY; missing file is
	// fine.
	godotenv.Load()

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Shell completion, a no-op outside of a completion request.
	completion().Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	commander.Register(commander.CommandsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

func completion() *complete.Command {
	flags := map[string]complete.Predictor{
		"investments-dir": predict.Dirs("*"),
		"credentials-dir": predict.Dirs("*"),
		"sheet-id":        predict.Something,
		"sheets-api-key":  predict.Something,
		"venue-buffer":    predict.Something,
		"bank-buffer":     predict.Something,
		"order-delay":     predict.Something,
	}
	return &complete.Command{
		Sub: map[string]*complete.Command{
			"run":       {Flags: flags},
			"status":    {Flags: flags},
			"check":     {Flags: flags},
			"clear":     {Flags: flags},
			"history":   {Flags: flags},
			"targets":   {Flags: flags},
			"positions": {Flags: flags},
		},
		Flags: flags,
	}
}
