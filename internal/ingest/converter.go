package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/teemow/grnsync/internal/table"
)

// DefaultConvertTimeout bounds one external conversion.
const DefaultConvertTimeout = 30 * time.Second

// ErrNoConverter is returned when none of a converter's executables exist.
var ErrNoConverter = errors.New("no converter executable found")

// Converter turns the file at inputPath into another format inside outDir
// and returns the path of the produced file.
type Converter interface {
	Convert(ctx context.Context, inputPath, outDir string) (string, error)
}

// RunFunc executes name with args and returns the combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandConverter runs an external program. The first of Binaries found in
// PATH is used.
type CommandConverter struct {
	Binaries []string
	// Args builds the argument list for one conversion.
	Args func(inputPath, outDir string) []string
	// Output names the file the program is expected to write.
	Output  func(inputPath, outDir string) string
	Timeout time.Duration

	LookPath LookPathFunc
	Run      RunFunc
}

// Convert implements Converter.
func (c CommandConverter) Convert(ctx context.Context, inputPath, outDir string) (string, error) {
	bin, err := c.resolve()
	if err != nil {
		return "", err
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultConvertTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := c.Run
	if run == nil {
		run = execRun
	}
	out, err := run(ctx, bin, c.Args(inputPath, outDir)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%s: %w", filepath.Base(bin), ctx.Err())
		}
		return "", fmt.Errorf("%s: %w: %s", filepath.Base(bin), err, truncate(string(out), 200))
	}

	produced := c.Output(inputPath, outDir)
	if _, err := os.Stat(produced); err != nil {
		return "", fmt.Errorf("%s produced no output at %s", filepath.Base(bin), produced)
	}
	return produced, nil
}

func (c CommandConverter) resolve() (string, error) {
	lookPath := c.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, b := range c.Binaries {
		if p, err := lookPath(b); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrNoConverter, strings.Join(c.Binaries, ", "))
}

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ReparseFunc reads a converted file back into a table.
type ReparseFunc func(path string, policy table.HeaderPolicy) (table.Table, error)

// ConvertStrategy writes the source to a scratch directory, converts it
// with an external program and re-parses the result.
type ConvertStrategy struct {
	ID        string
	Binaries  []string
	Converter Converter
	Reparse   ReparseFunc
	// TempDir is the parent of scratch directories; empty means os.TempDir.
	TempDir string
}

// Name implements Strategy.
func (s ConvertStrategy) Name() string { return s.ID }

// Requires implements Requirer.
func (s ConvertStrategy) Requires() []string { return s.Binaries }

// Parse implements Strategy.
func (s ConvertStrategy) Parse(ctx context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	dir, err := os.MkdirTemp(s.TempDir, "grnsync-"+s.ID+"-")
	if err != nil {
		return table.Table{}, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in, err := materialize(src, filepath.Join(dir, "in"))
	if err != nil {
		return table.Table{}, err
	}
	outDir := filepath.Join(dir, "out")
	if err := os.Mkdir(outDir, 0o700); err != nil {
		return table.Table{}, fmt.Errorf("create output dir: %w", err)
	}

	produced, err := s.Converter.Convert(ctx, in, outDir)
	if err != nil {
		return table.Table{}, err
	}
	return s.Reparse(produced, policy)
}

// materialize writes the source bytes below dir under its base name so
// converters can use the extension.
func materialize(src Source, dir string) (string, error) {
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", fmt.Errorf("create input dir: %w", err)
	}
	name := filepath.Base(src.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "input.xlsx"
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, src.Data, 0o600); err != nil {
		return "", fmt.Errorf("write input file: %w", err)
	}
	return path, nil
}

// stem is the base name without its extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReparseXLSX reads the first sheet of an xlsx file with excelize.
func ReparseXLSX(path string, policy table.HeaderPolicy) (table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("open converted workbook: %w", err)
	}
	defer f.Close()
	return firstSheet(f, policy)
}

// ReparseCSV reads a CSV file. Output that is not valid UTF-8 is decoded as
// Windows-1252, which is what office suites emit for Western locales.
func ReparseCSV(path string, policy table.HeaderPolicy) (table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return table.Table{}, fmt.Errorf("read converted file: %w", err)
	}
	return ParseCSV(data, policy)
}

// ParseCSV parses CSV bytes into a table under policy.
func ParseCSV(data []byte, policy table.HeaderPolicy) (table.Table, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return table.Table{}, fmt.Errorf("decode csv: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var grid [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return table.Table{}, fmt.Errorf("read csv: %w", err)
		}
		for i := range rec {
			rec[i] = table.CleanText(rec[i])
		}
		grid = append(grid, rec)
	}
	return table.FromGrid(grid, policy)
}

// NewDesktopStrategy resaves the file as xlsx with the office suite and
// reads the result with excelize.
func NewDesktopStrategy(timeout time.Duration) ConvertStrategy {
	bins := []string{"soffice"}
	return ConvertStrategy{
		ID:       StrategyDesktop,
		Binaries: bins,
		Converter: CommandConverter{
			Binaries: bins,
			Args: func(in, outDir string) []string {
				return []string{"--headless", "--convert-to", "xlsx", "--outdir", outDir, in}
			},
			Output: func(in, outDir string) string {
				return filepath.Join(outDir, stem(in)+".xlsx")
			},
			Timeout: timeout,
		},
		Reparse: ReparseXLSX,
	}
}

// NewLibreOfficeStrategy converts the file to CSV with LibreOffice.
func NewLibreOfficeStrategy(timeout time.Duration) ConvertStrategy {
	bins := []string{"libreoffice", "soffice"}
	return ConvertStrategy{
		ID:       StrategyLibreOffice,
		Binaries: bins,
		Converter: CommandConverter{
			Binaries: bins,
			Args: func(in, outDir string) []string {
				return []string{"--headless", "--convert-to", "csv", "--outdir", outDir, in}
			},
			Output: func(in, outDir string) string {
				return filepath.Join(outDir, stem(in)+".csv")
			},
			Timeout: timeout,
		},
		Reparse: ReparseCSV,
	}
}

// NewSSConvertStrategy converts the file to CSV with Gnumeric's ssconvert.
func NewSSConvertStrategy(timeout time.Duration) ConvertStrategy {
	bins := []string{"ssconvert"}
	return ConvertStrategy{
		ID:       StrategySSConvert,
		Binaries: bins,
		Converter: CommandConverter{
			Binaries: bins,
			Args: func(in, outDir string) []string {
				return []string{in, filepath.Join(outDir, stem(in)+".csv")}
			},
			Output: func(in, outDir string) string {
				return filepath.Join(outDir, stem(in)+".csv")
			},
			Timeout: timeout,
		},
		Reparse: ReparseCSV,
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
