package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type PolicyCategory string

const (
	CategoryHealth   PolicyCategory = "health"
	CategoryAuto     PolicyCategory = "auto"
	CategoryHome     PolicyCategory = "home"
	CategoryLife     PolicyCategory = "life"
	CategoryBusiness PolicyCategory = "business"
	CategoryOther    PolicyCategory = "other"
)

// ParseCategory normalizes free-form input; unknown values map to CategoryOther.
func ParseCategory(raw string) PolicyCategory {
	switch c := PolicyCategory(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryHealth, CategoryAuto, CategoryHome, CategoryLife, CategoryBusiness:
		return c
	default:
		return CategoryOther
	}
}

func (c PolicyCategory) Title() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
	FileTypeHTML FileType = "html"
)

// DetectFileType resolves the declared type from an explicit hint, the MIME type
// or the filename extension, in that order.
func DetectFileType(declared, mimeType, filename string) FileType {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "pdf":
		return FileTypePDF
	case "docx", "doc":
		return FileTypeDOCX
	case "txt", "text":
		return FileTypeTXT
	case "html", "htm":
		return FileTypeHTML
	}

	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf":
		return FileTypePDF
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FileTypeDOCX
	case "text/html":
		return FileTypeHTML
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF
	case ".docx":
		return FileTypeDOCX
	case ".txt", ".text", ".md":
		return FileTypeTXT
	case ".html", ".htm":
		return FileTypeHTML
	}

	if strings.HasPrefix(strings.ToLower(mimeType), "text/") {
		return FileTypeTXT
	}
	return FileType(strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."))
}

type PolicyDocument struct {
	Filename   string   `json:"filename"`
	MimeType   string   `json:"mime_type"`
	FileType   FileType `json:"file_type"`
	SizeBytes  int64    `json:"size_bytes"`
	StorageKey string   `json:"storage_key"`
}

type PolicyMetadata struct {
	Name           string         `json:"name"`
	Provider       string         `json:"provider,omitempty"`
	Category       PolicyCategory `json:"policy_type"`
	PolicyNumber   string         `json:"policy_number,omitempty"`
	CoverageAmount *float64       `json:"coverage_amount,omitempty"`
	PremiumAmount  *float64       `json:"premium_amount,omitempty"`
	StartDate      *time.Time     `json:"start_date,omitempty"`
	EndDate        *time.Time     `json:"end_date,omitempty"`
	Description    string         `json:"description,omitempty"`
}

type ExtractionStatus string

const (
	ExtractionPending    ExtractionStatus = "pending"
	ExtractionProcessing ExtractionStatus = "processing"
	ExtractionCompleted  ExtractionStatus = "completed"
	ExtractionFailed     ExtractionStatus = "failed"
)

type Policy struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id,omitempty"`
	Metadata      PolicyMetadata    `json:"metadata"`
	Document      PolicyDocument    `json:"document"`
	Status        ExtractionStatus  `json:"extraction_status"`
	Error         string            `json:"error,omitempty"`
	ExtractedText string            `json:"-"`
	Extraction    *ExtractionResult `json:"extraction,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// DocumentText is the output of the document text extractor.
type DocumentText struct {
	Text     string   `json:"-"`
	Units    int      `json:"units"`
	Method   string   `json:"method"`
	FileType FileType `json:"file_type"`
	// Err records why the extractor fell back to a placeholder.
	Err error `json:"-"`
}

// Readable reports whether the text came from the document itself.
func (d DocumentText) Readable() bool {
	return d.Err == nil && d.Method != MethodPlaceholder && strings.TrimSpace(d.Text) != ""
}

const (
	MethodPDFText     = "pdf_text"
	MethodDOCXXML     = "docx_xml"
	MethodPlainText   = "plain_text"
	MethodHTMLText    = "html_text"
	MethodPlaceholder = "placeholder"
)
