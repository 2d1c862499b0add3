package main

import (
	"context"
	"fmt"
	"io"

	"github.com/FocuswithJustin/standoff/core/bundle"
)

// BundleGroup contains bundle operations.
type BundleGroup struct {
	Pack   BundlePackCmd   `cmd:"" help:"Pack stored documents into a bundle"`
	Unpack BundleUnpackCmd `cmd:"" help:"Verify a bundle and import its documents"`
}

// BundlePackCmd writes stored documents to a bundle file.
type BundlePackCmd struct {
	Output string   `arg:"" help:"Bundle file to write" type:"path"`
	IDs    []string `arg:"" optional:"" help:"Document IDs (default: all)"`
}

func (c *BundlePackCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := loadDocuments(ctx, store, c.IDs)
	if err != nil {
		return err
	}
	opts := bundle.DefaultPackOptions()
	opts.Compression = bundle.CompressionType(g.Compression)
	opts.Tool.Version = version

	m, err := bundle.Pack(c.Output, docs, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Packed %d documents into %s (%s, bundle %s)\n", len(m.Documents), c.Output, m.Compression, m.ID)
	return nil
}

// BundleUnpackCmd verifies a bundle and optionally imports it.
type BundleUnpackCmd struct {
	Path   string `arg:"" help:"Bundle file" type:"existingfile"`
	DryRun bool   `name:"dry-run" help:"Verify and list only, do not import"`
}

func (c *BundleUnpackCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	m, docs, err := bundle.Unpack(c.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Bundle %s (version %s, %s), created %s by %s %s\n",
		m.ID, m.BundleVersion, m.Compression, m.CreatedAt, m.Tool.Name, m.Tool.Version)
	for _, e := range m.Documents {
		fmt.Fprintf(out, "  %s  %-24s  %d annotations  blake3:%s\n", e.ID, e.Name, e.Annotations, e.Fingerprint.BLAKE3)
	}
	if c.DryRun {
		return nil
	}

	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, doc := range docs {
		if err := store.Save(ctx, doc); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Imported %d documents\n", len(docs))
	return nil
}
