// Command memo manages saved voice memos from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/petems/memo-tray/internal/audio"
	"github.com/petems/memo-tray/internal/config"
	"github.com/petems/memo-tray/internal/library"
	"github.com/petems/memo-tray/internal/logging"
	"github.com/petems/memo-tray/internal/recorder"
	"github.com/petems/memo-tray/internal/storage"
	"github.com/rs/zerolog"
)

const usage = `usage: memo <command> [flags]

commands:
  list                      list saved recordings
  info <name>               show the tags and format of a recording
  merge <base> <other>...   append recordings to base and delete them
  delete <name>...          delete recordings
  record [flags]            record from the microphone and save
  devices                   list input devices
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "memo:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "devices":
		return devices(cfg, out)
	case "record":
		return record(ctx, cfg, log, args, out)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	lib, err := library.New(store, cfg.Library.CacheSize, log, nil)
	if err != nil {
		return err
	}

	switch cmd {
	case "list":
		return list(ctx, lib, out)
	case "info":
		if len(args) != 1 {
			return errors.New("info takes exactly one recording name")
		}
		return info(ctx, lib, args[0], out)
	case "merge":
		return lib.Merge(ctx, args)
	case "delete":
		if len(args) == 0 {
			return errors.New("delete needs at least one recording name")
		}
		return lib.Delete(ctx, args...)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func list(ctx context.Context, lib *library.Library, out io.Writer) error {
	recs, err := lib.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAUTHOR\tTITLE\tDATE\tTIME\tDURATION")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Name, r.NameSurname, r.Title, r.Date, r.Time, r.Duration.Round(100*time.Millisecond))
	}
	return w.Flush()
}

func info(ctx context.Context, lib *library.Library, name string, out io.Writer) error {
	c, err := lib.Load(ctx, name)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "sample rate\t%d Hz\n", c.SampleRate())
	fmt.Fprintf(w, "channels\t%d\n", c.Channels())
	fmt.Fprintf(w, "bits\t%d\n", c.BitsPerSample())
	fmt.Fprintf(w, "duration\t%s\n", c.Duration())
	for _, tag := range c.Metadata().Tags() {
		fmt.Fprintf(w, "%s\t%s\n", tag, c.Tag(tag))
	}
	return w.Flush()
}

func devices(cfg *config.Config, out io.Writer) error {
	device, err := audio.New(cfg.Audio)
	if err != nil {
		return err
	}
	defer device.Close()

	list, err := device.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range list {
		mark := " "
		if d.Default {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %s\t%s\n", mark, d.ID, d.Name)
	}
	return nil
}

func record(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	duration := fs.Duration("d", 10*time.Second, "recording length")
	title := fs.String("title", "", "recording title")
	comment := fs.String("comment", "", "recording comment")
	name := fs.String("name", cfg.Profile.Name, "author first name")
	surname := fs.String("surname", cfg.Profile.Surname, "author surname")
	deviceID := fs.String("device", cfg.Audio.DeviceID, "input device ID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	device, err := audio.New(cfg.Audio)
	if err != nil {
		return err
	}
	defer device.Close()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	audioCfg := cfg.Audio
	audioCfg.DeviceID = *deviceID
	rec := recorder.New(recorder.Config{
		Device: device,
		Sink:   store,
		Audio:  audioCfg,
		Logger: log,
	})

	if err := rec.Start(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Recording for %s, press Ctrl+C to stop early\n", *duration)

	timer := time.NewTimer(*duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}

	if err := rec.Stop(); err != nil {
		return err
	}

	saved, err := rec.Save(context.Background(), recorder.Details{
		Name:    *name,
		Surname: *surname,
		Title:   *title,
		Comment: *comment,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, saved)
	return nil
}

