package bundle

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/core/errors"
	"github.com/FocuswithJustin/standoff/internal/logging"
)

// Injectable functions for testing
var (
	gzipNewWriterLevel = gzip.NewWriterLevel
	xzNewWriter        = xz.NewWriter
	gzipNewReader      = gzip.NewReader
	xzNewReader        = xz.NewReader
	jsonMarshalDoc     = json.Marshal
	now                = time.Now
	writeToTarFunc     = writeToTarImpl
)

// CompressionType specifies the compression algorithm for bundles.
type CompressionType string

const (
	// CompressionXZ uses XZ/LZMA2 compression (default, best ratio).
	CompressionXZ CompressionType = "xz"
	// CompressionGzip uses gzip compression (stdlib, faster).
	CompressionGzip CompressionType = "gzip"
)

// PackOptions configures bundle packing behavior.
type PackOptions struct {
	// Compression specifies the compression algorithm. Defaults to XZ.
	Compression CompressionType
	// Tool names the program writing the bundle.
	Tool ToolInfo
}

// DefaultPackOptions returns the default packing options (XZ compression).
func DefaultPackOptions() *PackOptions {
	return &PackOptions{
		Compression: CompressionXZ,
		Tool:        ToolInfo{Name: "standoff", Version: Version},
	}
}

// Pack writes docs to a new bundle at archivePath.
func Pack(archivePath string, docs []*annot.Document, opts *PackOptions) (*Manifest, error) {
	if opts == nil {
		opts = DefaultPackOptions()
	}
	compression := opts.Compression
	if compression == "" {
		compression = CompressionXZ
	}

	manifest := &Manifest{
		BundleVersion: Version,
		ID:            uuid.NewString(),
		CreatedAt:     now().UTC().Format(time.RFC3339),
		Tool:          opts.Tool,
		Compression:   compression,
	}

	blobs := make([][]byte, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if seen[doc.ID()] {
			return nil, errors.NewValidation("documents", "duplicate document id "+doc.ID())
		}
		seen[doc.ID()] = true

		data, err := jsonMarshalDoc(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize document %s: %w", doc.ID(), err)
		}
		fp, err := annot.Fingerprint(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to fingerprint document %s: %w", doc.ID(), err)
		}
		manifest.Documents = append(manifest.Documents, &Entry{
			ID:          doc.ID(),
			Name:        doc.Name(),
			Path:        path.Join("documents", doc.ID()+".json"),
			SizeBytes:   int64(len(data)),
			Hashes:      annot.HashBytes(data),
			Fingerprint: fp,
			Annotations: doc.AnnotationCount(),
		})
		blobs = append(blobs, data)
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return nil, errors.NewIO("create", archivePath, err)
	}
	defer file.Close()

	var compressWriter io.WriteCloser
	switch compression {
	case CompressionGzip:
		compressWriter, err = gzipNewWriterLevel(file, gzip.BestCompression)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
	case CompressionXZ:
		compressWriter, err = xzNewWriter(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
	default:
		return nil, errors.NewUnsupported("compression", string(compression))
	}

	tarWriter := tar.NewWriter(compressWriter)

	manifestData, err := manifest.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize manifest: %w", err)
	}
	if err := writeToTarFunc(tarWriter, "manifest.json", manifestData); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	for i, e := range manifest.Documents {
		if err := writeToTarFunc(tarWriter, e.Path, blobs[i]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", e.Path, err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish tar stream: %w", err)
	}
	if err := compressWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, errors.NewIO("close", archivePath, err)
	}

	logging.BundlePacked(archivePath, len(docs), string(compression))
	return manifest, nil
}

// DetectCompression detects the compression type of a bundle by its magic bytes.
func DetectCompression(archivePath string) (CompressionType, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return "", errors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	magic := make([]byte, 6)
	n, err := io.ReadFull(file, magic)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", errors.NewIO("read magic bytes", archivePath, err)
	}
	if n < 2 {
		return "", errors.NewValidation("archive", "file too small to detect compression")
	}

	// gzip: 1f 8b
	if magic[0] == 0x1f && magic[1] == 0x8b {
		return CompressionGzip, nil
	}
	// xz: fd 37 7a 58 5a 00
	if n >= 6 && magic[0] == 0xfd && magic[1] == 0x37 && magic[2] == 0x7a &&
		magic[3] == 0x58 && magic[4] == 0x5a && magic[5] == 0x00 {
		return CompressionXZ, nil
	}

	return "", errors.NewUnsupported("compression format", "unknown magic bytes")
}

// Unpack reads a bundle, rebuilds its documents in manifest order and checks
// every entry's digests and fingerprint. Entries not listed in the manifest
// are ignored.
func Unpack(archivePath string) (*Manifest, []*annot.Document, error) {
	compression, err := DetectCompression(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to detect compression: %w", err)
	}

	file, err := os.Open(archivePath)
	if err != nil {
		return nil, nil, errors.NewIO("open", archivePath, err)
	}
	defer file.Close()

	var decompressReader io.Reader
	switch compression {
	case CompressionGzip:
		gzReader, err := gzipNewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		decompressReader = gzReader
	case CompressionXZ:
		xzReader, err := xzNewReader(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		decompressReader = xzReader
	}

	tarReader := tar.NewReader(decompressReader)
	var manifest *Manifest
	entries := make(map[string][]byte)
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tarReader)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", header.Name, err)
		}
		if header.Name == "manifest.json" {
			if manifest, err = ParseManifest(data); err != nil {
				return nil, nil, fmt.Errorf("failed to parse manifest: %w", err)
			}
			continue
		}
		entries[header.Name] = data
	}
	if manifest == nil {
		return nil, nil, errors.NewValidation("archive", "bundle does not contain manifest.json")
	}

	docs := make([]*annot.Document, 0, len(manifest.Documents))
	for _, e := range manifest.Documents {
		doc, err := readEntry(e, entries[e.Path])
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}
	return manifest, docs, nil
}

func readEntry(e *Entry, data []byte) (*annot.Document, error) {
	if data == nil {
		return nil, errors.NewNotFound("bundle entry", e.Path)
	}
	if !e.Hashes.Matches(data) {
		return nil, errors.NewValidation(e.Path, "entry digest mismatch")
	}
	var doc annot.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewParse("json", e.Path, err.Error())
	}
	if doc.ID() != e.ID {
		return nil, errors.NewValidation(e.Path, fmt.Sprintf("document id %s, manifest says %s", doc.ID(), e.ID))
	}
	fp, err := annot.Fingerprint(&doc)
	if err != nil {
		return nil, err
	}
	if fp != e.Fingerprint {
		return nil, errors.NewValidation(e.Path, "document fingerprint mismatch")
	}
	return &doc, nil
}

// writeToTarImpl writes a file to the tar archive.
func writeToTarImpl(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: now().UTC(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
