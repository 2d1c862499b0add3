package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/internal/docstore"
	"github.com/FocuswithJustin/standoff/internal/formats/standoffxml"
	"github.com/FocuswithJustin/standoff/internal/logging"
	"github.com/FocuswithJustin/standoff/internal/pipeline"
	"github.com/FocuswithJustin/standoff/internal/query"
	"github.com/FocuswithJustin/standoff/internal/validation"
)

// DocGroup contains document operations.
type DocGroup struct {
	ImportXML  DocImportXMLCmd  `cmd:"" name:"import-xml" help:"Import a GATE XML document"`
	ImportText DocImportTextCmd `cmd:"" name:"import-text" help:"Import a plain text file"`
	Annotate   DocAnnotateCmd   `cmd:"" help:"Run the tokenizer and sentence splitter over stored documents"`
	List       DocListCmd       `cmd:"" help:"List stored documents"`
	Show       DocShowCmd       `cmd:"" help:"Show a document and its annotations"`
	Query      DocQueryCmd      `cmd:"" help:"Select annotations with a span query"`
	ExportXML  DocExportXMLCmd  `cmd:"" name:"export-xml" help:"Export a document as GATE XML"`
	Delete     DocDeleteCmd     `cmd:"" help:"Delete a stored document"`
}

// annotators returns the default processing pipeline.
func annotators(set string) *pipeline.Pipeline {
	return pipeline.New(&pipeline.Tokenizer{SetName: set}, &pipeline.SentenceSplitter{SetName: set})
}

// DocImportXMLCmd imports a GATE XML file.
type DocImportXMLCmd struct {
	Path string `arg:"" help:"GATE XML file" type:"existingfile"`
	Name string `help:"Document name (default: file name)"`
}

func (c *DocImportXMLCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	result, err := standoffxml.Detect(c.Path)
	if err != nil {
		return err
	}
	if !result.Detected {
		return fmt.Errorf("%s is not a GATE XML document: %s", c.Path, result.Reason)
	}

	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.Path, err)
	}
	defer f.Close()

	doc, err := standoffxml.Read(f, nameOr(c.Name, c.Path))
	if err != nil {
		return err
	}
	return saveNew(ctx, g, out, doc)
}

// DocImportTextCmd imports a UTF-8 text file.
type DocImportTextCmd struct {
	Path     string `arg:"" help:"Text file" type:"existingfile"`
	Name     string `help:"Document name (default: file name)"`
	Annotate bool   `short:"a" help:"Tokenize and split sentences after import"`
	Set      string `help:"Annotation set for --annotate (default set when empty)"`
}

func (c *DocImportTextCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.Path, err)
	}
	defer f.Close()

	text, err := validation.ReadText(f, c.Path)
	if err != nil {
		return err
	}
	doc := annot.NewDocument(nameOr(c.Name, c.Path))
	if err := doc.SetContent(text); err != nil {
		return err
	}
	if c.Annotate {
		if err := annotators(c.Set).Run(ctx, doc); err != nil {
			return err
		}
	}
	return saveNew(ctx, g, out, doc)
}

func nameOr(name, path string) string {
	if name != "" {
		return name
	}
	return filepath.Base(path)
}

func saveNew(ctx context.Context, g *Globals, out io.Writer, doc *annot.Document) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, doc); err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %s (%s): %d annotations in %d sets\n",
		doc.ID(), doc.Name(), doc.AnnotationCount(), len(doc.Sets()))
	return nil
}

// DocAnnotateCmd runs the default pipeline over stored documents.
type DocAnnotateCmd struct {
	IDs []string `arg:"" optional:"" help:"Document IDs (default: all)"`
	Set string   `help:"Annotation set to write (default set when empty)"`
}

func (c *DocAnnotateCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	docs, err := loadDocuments(ctx, store, c.IDs)
	if err != nil {
		return err
	}
	if err := annotators(c.Set).RunAll(ctx, docs, g.Workers); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := store.Save(ctx, doc); err != nil {
			return err
		}
		fmt.Fprintf(out, "Annotated %s: %d annotations\n", doc.ID(), doc.AnnotationCount())
	}
	return nil
}

// loadDocuments loads the given documents, or every stored document when
// ids is empty.
func loadDocuments(ctx context.Context, store *docstore.Store, ids []string) ([]*annot.Document, error) {
	if len(ids) == 0 {
		summaries, err := store.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range summaries {
			ids = append(ids, s.ID)
		}
	}
	docs := make([]*annot.Document, 0, len(ids))
	for _, id := range ids {
		doc, err := store.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// DocListCmd lists stored documents.
type DocListCmd struct{}

func (c *DocListCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No documents.")
		return nil
	}
	fmt.Fprintf(out, "%-36s  %-24s  %5s  %11s  %s\n", "ID", "NAME", "SETS", "ANNOTATIONS", "UPDATED")
	for _, s := range summaries {
		fmt.Fprintf(out, "%-36s  %-24s  %5d  %11d  %s\n",
			s.ID, s.Name, s.Sets, s.Annotations, s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// DocShowCmd prints a document and every annotation set.
type DocShowCmd struct {
	ID string `arg:"" help:"Document ID"`
}

func (c *DocShowCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(ctx, c.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Document: %s\n", doc.ID())
	fmt.Fprintf(out, "Name:     %s\n", doc.Name())
	fmt.Fprintf(out, "Length:   %d bytes\n", len(doc.Content()))
	if doc.Features().Len() > 0 {
		encoded, err := doc.Features().Encode()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Features: %s\n", encoded)
	}
	for _, set := range doc.Sets() {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Set %s: %d annotations\n", setLabel(set.Name()), set.Len())
		printAnnotations(out, doc, set.InDocumentOrder())
	}
	return nil
}

func setLabel(name string) string {
	if name == "" {
		return "(default)"
	}
	return strconv.Quote(name)
}

func printAnnotations(out io.Writer, doc *annot.Document, as annot.Annotations) {
	for _, a := range as {
		fmt.Fprintf(out, "  %s\t%q\n", annot.EncodeAnnotation(a), doc.Text(a))
	}
}

// DocQueryCmd evaluates a span query against one set of a document.
type DocQueryCmd struct {
	ID    string `arg:"" help:"Document ID"`
	Query string `arg:"" optional:"" help:"Query, e.g. 'Token in 0:12' or 'Sentence covering 4:7'"`
	Set   string `help:"Annotation set (default set when empty)"`
}

func (c *DocQueryCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	q, err := query.Parse(c.Query)
	if err != nil {
		return err
	}

	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(ctx, c.ID)
	if err != nil {
		return err
	}
	res, err := q.Eval(doc.NamedAnnotations(c.Set))
	if err != nil {
		return err
	}
	logging.Debug("query evaluated", "document_id", doc.ID(), "query", q.String(), "matches", res.Len())
	printAnnotations(out, doc, res)
	return nil
}

// DocExportXMLCmd writes a stored document as GATE XML.
type DocExportXMLCmd struct {
	ID     string `arg:"" help:"Document ID"`
	Output string `short:"o" help:"Output file (default: stdout)" type:"path"`
}

func (c *DocExportXMLCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Load(ctx, c.ID)
	if err != nil {
		return err
	}
	if c.Output == "" {
		return standoffxml.Write(out, doc)
	}

	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", c.Output, err)
	}
	if err := standoffxml.Write(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Exported %s to %s\n", doc.ID(), c.Output)
	return nil
}

// DocDeleteCmd removes a stored document.
type DocDeleteCmd struct {
	ID string `arg:"" help:"Document ID"`
}

func (c *DocDeleteCmd) Run(ctx context.Context, g *Globals, out io.Writer) error {
	store, err := g.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(ctx, c.ID); err != nil {
		return err
	}
	fmt.Fprintf(out, "Deleted %s\n", c.ID)
	return nil
}
