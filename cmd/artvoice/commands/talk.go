package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docentlab/artvoice/pkg/artwork"
	"github.com/docentlab/artvoice/pkg/broker"
	"github.com/docentlab/artvoice/pkg/cli"
	"github.com/docentlab/artvoice/pkg/docent"
	"github.com/docentlab/artvoice/pkg/media"
	"github.com/docentlab/artvoice/pkg/realtime"
)

var talkCmd = &cobra.Command{
	Use:   "talk <artwork-id>",
	Short: "Hold a live voice conversation about an artwork",
	Long: `Open a live speech conversation with the docent about one artwork.

The artwork record is resolved from the gallery backend, a short-lived
session credential is obtained, and a realtime connection is negotiated.
Speak into the default microphone; press Ctrl-C to hang up.

Example:
  artvoice talk starry-night
  artvoice talk starry-night --transport websocket
  artvoice talk starry-night --no-mic --record inbound.opus --plain`,
	Args: cobra.ExactArgs(1),
	RunE: runTalk,
}

func init() {
	talkCmd.Flags().String("transport", "webrtc", "session transport: webrtc or websocket")
	talkCmd.Flags().Bool("no-mic", false, "run without a microphone (control channel only)")
	talkCmd.Flags().Bool("plain", false, "print trace lines instead of the live frame (for piping)")
	talkCmd.Flags().String("record", "", "append inbound audio payloads to this file")
	talkCmd.Flags().String("voice", "", "override the docent voice for this call")
	talkCmd.Flags().String("model", "", "override the realtime model for this call")
}

// dialerFor selects the session dialer for the requested transport.
func dialerFor(transport string, client *realtime.Client) (docent.Dialer, error) {
	switch transport {
	case "webrtc":
		return docent.WebRTCDialer(client), nil
	case "websocket":
		return docent.WebSocketDialer(client), nil
	default:
		return nil, fmt.Errorf("unknown transport %q (want webrtc or websocket)", transport)
	}
}

func runTalk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliCtx, err := getContext()
	if err != nil {
		return err
	}

	transport, _ := cmd.Flags().GetString("transport")
	noMic, _ := cmd.Flags().GetBool("no-mic")
	plain, _ := cmd.Flags().GetBool("plain")
	recordPath, _ := cmd.Flags().GetString("record")
	voice, _ := cmd.Flags().GetString("voice")
	model, _ := cmd.Flags().GetString("model")
	if voice == "" {
		voice = cliCtx.Voice
	}
	if model == "" {
		model = cliCtx.Model
	}

	httpClient := galleryHTTPClient(cliCtx)

	var rtOpts []realtime.Option
	if cliCtx.RealtimeURL != "" {
		rtOpts = append(rtOpts,
			realtime.WithBaseURL(cliCtx.RealtimeURL),
			realtime.WithWebSocketURL(cliCtx.RealtimeURL))
	}
	client := realtime.NewClient(rtOpts...)

	dialer, err := dialerFor(transport, client)
	if err != nil {
		return err
	}

	opts := docent.Options{
		Resolver:             artwork.NewHTTPResolver(cliCtx.GalleryURL, httpClient),
		Broker:               broker.NewHTTPBroker(cliCtx.GalleryURL, httpClient),
		Dialer:               dialer,
		Images:               docent.NewHTTPImageSource(httpClient),
		Model:                model,
		Voice:                voice,
		VADThreshold:         cliCtx.VADThreshold,
		VADPrefixPaddingMs:   cliCtx.VADPrefixPaddingMs,
		VADSilenceDurationMs: cliCtx.VADSilenceDurationMs,
	}
	if !noMic {
		opts.Microphone = media.MalgoMicrophone{}
	}
	if recordPath != "" {
		sink, err := media.NewFileSink(recordPath)
		if err != nil {
			return fmt.Errorf("open record file: %w", err)
		}
		defer sink.Close()
		opts.Sink = sink
	} else {
		opts.Sink = &media.DiscardSink{}
	}

	o := docent.New(args[0], opts)
	if err := o.Resolve(ctx); err != nil {
		return err
	}

	view := newConversationView(os.Stdout, o.Artwork().Title, plain)

	started := time.Now()
	if err := o.Start(ctx); err != nil {
		view.sync(o.State(), o.Trace().Entries())
		return err
	}

	view.sync(o.State(), o.Trace().Entries())
	for {
		select {
		case <-ctx.Done():
			o.Stop()
			view.sync(o.State(), o.Trace().Entries())
			cli.PrintInfo("Hung up after %s", cli.FormatDuration(time.Since(started)))
			reportRecording(recordPath)
			return nil

		case <-o.Trace().Updated():
			view.sync(o.State(), o.Trace().Entries())

			switch o.State() {
			case docent.StateError:
				err := o.Err()
				o.Stop()
				return err
			case docent.StateReady:
				// The far side ended the call.
				cli.PrintInfo("Call ended after %s", cli.FormatDuration(time.Since(started)))
				reportRecording(recordPath)
				return nil
			}
		}
	}
}

func reportRecording(path string) {
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err == nil {
		cli.PrintInfo("Recorded %s to %s", cli.FormatBytes(info.Size()), path)
	}
}
