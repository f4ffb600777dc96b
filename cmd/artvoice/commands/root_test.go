package commands

import (
	"testing"

	"github.com/docentlab/artvoice/pkg/cli"
	"github.com/docentlab/artvoice/pkg/realtime"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ARTVOICE_GALLERY_URL", "http://env-gallery:8080")
	t.Setenv("ARTVOICE_API_KEY", "env-key")

	ctx := &cli.Context{GalleryURL: "http://file-gallery", APIKey: "file-key", Voice: "sage"}
	applyEnvOverrides(ctx)

	if ctx.GalleryURL != "http://env-gallery:8080" {
		t.Errorf("GalleryURL = %q; want env override", ctx.GalleryURL)
	}
	if ctx.APIKey != "env-key" {
		t.Errorf("APIKey = %q; want env override", ctx.APIKey)
	}
	if ctx.Voice != "sage" {
		t.Errorf("Voice = %q; untouched fields must survive", ctx.Voice)
	}
}

func TestApplyEnvOverridesEmptyEnv(t *testing.T) {
	t.Setenv("ARTVOICE_GALLERY_URL", "")
	t.Setenv("ARTVOICE_API_KEY", "")

	ctx := &cli.Context{GalleryURL: "http://file-gallery", APIKey: "file-key"}
	applyEnvOverrides(ctx)

	if ctx.GalleryURL != "http://file-gallery" || ctx.APIKey != "file-key" {
		t.Errorf("empty env vars must not clear config values: %+v", ctx)
	}
}

func TestDialerFor(t *testing.T) {
	client := realtime.NewClient()

	for _, transport := range []string{"webrtc", "websocket"} {
		d, err := dialerFor(transport, client)
		if err != nil {
			t.Errorf("dialerFor(%q): %v", transport, err)
		}
		if d == nil {
			t.Errorf("dialerFor(%q) = nil dialer", transport)
		}
	}

	if _, err := dialerFor("carrier-pigeon", client); err == nil {
		t.Error("dialerFor with unknown transport: expected error")
	}
}
