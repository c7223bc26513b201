// imgprep pre-pulls and tags the sandbox base image so daemon startup
// never has to wait on a registry. Run it from host provisioning or CI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/p-arndt/sandpool/internal/config"
	"github.com/p-arndt/sandpool/internal/docker"
)

func main() {
	cfgPath := flag.String("config", "", "path to sandpool.yaml")
	image := flag.String("image", "", "image ref to prepare (default: base_image from config)")
	fallback := flag.String("fallback", "", "fallback ref to pull and tag if the image is unavailable")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load config: %v\n", err)
		os.Exit(1)
	}

	ref := *image
	if ref == "" {
		ref = cfg.BaseImage
	}
	fb := *fallback
	if fb == "" {
		fb = cfg.FallbackImage
	}

	dc, err := docker.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: docker client: %v\n", err)
		os.Exit(1)
	}
	defer dc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := dc.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: docker ping failed, is Docker running? %v\n", err)
		os.Exit(1)
	}

	resolved, err := dc.EnsureImage(ctx, ref, fb)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: prepare image %s: %v\n", ref, err)
		os.Exit(1)
	}

	fmt.Printf("Image ready: %s\n", resolved)
}
