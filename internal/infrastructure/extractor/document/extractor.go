// Package document turns stored policy blobs into plain text. Extraction never
// fails: unreadable input yields a descriptive placeholder with the cause.
package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/policy-bridge/internal/core/domain"
	"github.com/kirillkom/policy-bridge/internal/core/ports"
)

const defaultMaxBytes = 32 << 20

type parser func(raw []byte) (text string, units int, err error)

type Extractor struct {
	storage  ports.ObjectStorage
	logger   *slog.Logger
	maxBytes int64
	parsers  map[domain.FileType]parser
	methods  map[domain.FileType]string
	labels   map[domain.FileType]string
}

func NewExtractor(storage ports.ObjectStorage, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		storage:  storage,
		logger:   logger,
		maxBytes: defaultMaxBytes,
		parsers: map[domain.FileType]parser{
			domain.FileTypePDF:  parsePDF,
			domain.FileTypeDOCX: parseDOCX,
			domain.FileTypeTXT:  parseText,
			domain.FileTypeHTML: parseHTML,
		},
		methods: map[domain.FileType]string{
			domain.FileTypePDF:  domain.MethodPDFText,
			domain.FileTypeDOCX: domain.MethodDOCXXML,
			domain.FileTypeTXT:  domain.MethodPlainText,
			domain.FileTypeHTML: domain.MethodHTMLText,
		},
		labels: map[domain.FileType]string{
			domain.FileTypePDF:  "PDF document",
			domain.FileTypeDOCX: "Word document",
			domain.FileTypeTXT:  "Text document",
			domain.FileTypeHTML: "HTML document",
		},
	}
}

func (e *Extractor) Extract(ctx context.Context, doc domain.PolicyDocument, meta domain.PolicyMetadata) domain.DocumentText {
	parse, ok := e.parsers[doc.FileType]
	if !ok {
		err := domain.WrapError(domain.ErrDocumentUnreadable, "extract document", fmt.Errorf("unsupported file type %q", doc.FileType))
		return e.placeholder("Document", doc, meta, err, false)
	}

	raw, err := e.read(ctx, doc.StorageKey)
	if err != nil {
		return e.placeholder("Policy document", doc, meta, domain.WrapError(domain.ErrDocumentUnreadable, "read document", err), true)
	}

	text, units, err := safeParse(parse, raw)
	if err == nil && text == "" {
		err = errors.New("no text content found")
	}
	if err != nil {
		return e.placeholder(e.labels[doc.FileType], doc, meta, domain.WrapError(domain.ErrDocumentUnreadable, "parse document", err), true)
	}

	return domain.DocumentText{
		Text:     text,
		Units:    units,
		Method:   e.methods[doc.FileType],
		FileType: doc.FileType,
	}
}

func (e *Extractor) read(ctx context.Context, key string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(io.LimitReader(reader, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}
	if int64(len(raw)) > e.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", e.maxBytes)
	}
	return raw, nil
}

// placeholder describes the document from its record. annotate appends the
// failure reason for documents whose type is supported.
func (e *Extractor) placeholder(label string, doc domain.PolicyDocument, meta domain.PolicyMetadata, cause error, annotate bool) domain.DocumentText {
	e.logger.Warn("document_text_placeholder",
		"file_type", doc.FileType,
		"storage_key", doc.StorageKey,
		"error", cause,
	)
	text := fmt.Sprintf("%s: %s - Type: %s - File size: %d bytes", label, meta.Name, meta.Category, doc.SizeBytes)
	if annotate {
		text += " - Error: " + cause.Error()
	}
	return domain.DocumentText{
		Text:     text,
		Method:   domain.MethodPlaceholder,
		FileType: doc.FileType,
		Err:      cause,
	}
}

// safeParse converts parser panics into errors; the PDF reader panics on some
// malformed cross-reference tables.
func safeParse(parse parser, raw []byte) (text string, units int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()
	return parse(raw)
}
