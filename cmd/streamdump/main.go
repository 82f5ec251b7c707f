// Package main
// streamdump hex-dumps a byte range of a file through the accumulator
// reader, which makes it a handy way to watch the fill/consume/seek
// behavior from the command line (verbosity 5 shows the trace logs).
// Created by RTT.
// Author: teocci@yandex.com on 2021-Dec-02
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/teocci/go-stream-buf/buffer"
)

func main() {
	app := cli.NewApp()
	app.Name = "streamdump"
	app.Usage = "dump a byte range of a file through the accumulator reader"
	app.ArgsUsage = "<file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "capacity, c",
			Usage: "lookahead buffer capacity in bytes",
			Value: buffer.DefaultCapacity,
		},
		cli.Int64Flag{
			Name:  "seek, s",
			Usage: "absolute offset to seek to before dumping",
		},
		cli.IntFlag{
			Name:  "length, n",
			Usage: "number of bytes to dump",
			Value: 256,
		},
		cli.IntFlag{
			Name:  "verbosity, v",
			Usage: "logging verbosity (0=fatal,1=error,2=warn,3=info,4=debug,5=trace)",
			Value: 2,
		},
	}
	app.Action = dump

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func setVerbosity(v int) {
	levels := []zerolog.Level{
		zerolog.FatalLevel,
		zerolog.ErrorLevel,
		zerolog.WarnLevel,
		zerolog.InfoLevel,
		zerolog.DebugLevel,
		zerolog.TraceLevel,
	}
	if v < 0 {
		v = 0
	}
	if v >= len(levels) {
		v = len(levels) - 1
	}
	zerolog.SetGlobalLevel(levels[v])
}

func dump(ctx *cli.Context) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	setVerbosity(ctx.Int("verbosity"))

	if ctx.NArg() != 1 {
		return fmt.Errorf("streamdump: expected exactly one input file")
	}

	f, err := os.Open(ctx.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	ar := buffer.NewAccReaderSize(f, ctx.Int("capacity"))
	if offset := ctx.Int64("seek"); offset > 0 {
		if _, err = ar.Seek(offset, io.SeekStart); err != nil {
			return err
		}
	}

	w := hex.Dumper(os.Stdout)
	defer w.Close()

	left := ctx.Int("length")
	for left > 0 {
		window, err := ar.FillBuf()
		if err != nil {
			return err
		}
		if len(window) == 0 {
			log.Debug().Msg("source exhausted")
			break
		}
		n := len(window)
		if n > left {
			n = left
		}
		if _, err = w.Write(window[:n]); err != nil {
			return err
		}
		ar.Consume(n)
		left -= n
	}
	return nil
}
