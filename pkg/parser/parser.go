package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/yurifrl/sheetload/pkg/models"
)

type FileType string

const (
	XLSX FileType = "xlsx"
	XLS  FileType = "xls"
	CSV  FileType = "csv"
)

var ErrUnknownFileType = errors.New("unknown file type")

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte("\xd0\xcf\x11\xe0\xa1\xb1\x1a\xe1")
)

type Parser struct {
	logger  *log.Logger
	charset string
}

func New(logger *log.Logger) *Parser {
	return &Parser{
		logger:  logger,
		charset: "utf-8",
	}
}

// WithCharset sets the code page used for legacy .xls string cells.
func (p *Parser) WithCharset(charset string) *Parser {
	if charset != "" {
		p.charset = charset
	}
	return p
}

// ReadFile loads the first sheet of the file at path. A missing file yields an
// error wrapping fs.ErrNotExist.
func (p *Parser) ReadFile(path string) (*models.RawTable, error) {
	table, _, err := p.Load(path)
	return table, err
}

// Load is ReadFile that also reports the file type the sheet was read as.
func (p *Parser) Load(path string) (*models.RawTable, FileType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	fileType := DetectType(filepath.Base(path), data)
	table, err := p.process(data, filepath.Base(path), fileType)
	return table, fileType, err
}

func (p *Parser) ProcessBytes(data []byte, filename string) (*models.RawTable, error) {
	return p.process(data, filename, DetectType(filename, data))
}

func (p *Parser) process(data []byte, filename string, fileType FileType) (*models.RawTable, error) {
	p.logger.Debug("detected file type", "type", fileType, "filename", filename, "bytes", len(data))

	var (
		rows [][]string
		err  error
	)
	switch fileType {
	case XLSX:
		rows, err = p.readXLSX(data)
	case XLS:
		rows, err = p.readXLS(data)
	case CSV:
		rows, err = p.readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFileType, filename)
	}
	if err != nil {
		return nil, err
	}

	table := models.NewRawTable(rows)
	if len(table.Header) == 0 {
		return nil, fmt.Errorf("no data found in sheet")
	}
	p.logger.Debug("read sheet", "columns", len(table.Header), "rows", len(table.Rows))
	return table, nil
}

// DetectType picks the reader from the file extension, falling back to the
// leading magic bytes.
func DetectType(filename string, data []byte) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return XLSX
	case ".xls":
		return XLS
	case ".csv", ".txt":
		return CSV
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return XLSX
	case bytes.HasPrefix(data, oleMagic):
		return XLS
	}
	return ""
}
